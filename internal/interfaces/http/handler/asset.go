package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/application/inventory"
)

// AssetHandler handles the tenant inventory endpoints
type AssetHandler struct {
	BaseHandler
	assetService *inventory.AssetService
	files        FileURLs
	maxUpload    int64
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assetService *inventory.AssetService, files FileURLs, maxUpload int64) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
		files:        files,
		maxUpload:    maxUpload,
	}
}

// List godoc
// @Summary      List assets
// @Tags         assets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        search query string false "Search name or serial number"
// @Param        active query bool false "Active flag"
// @Param        include_disabled query bool false "Include disabled assets"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]AssetResponse}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var query AssetListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	result, err := h.assetService.List(c.Request.Context(), p, t.ID, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toAssetResponses(c, h.files, result.Items), result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get an asset
// @Tags         assets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Asset ID" format(uuid)
// @Success      200 {object} dto.Response{data=AssetResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	asset, err := h.assetService.Get(c.Request.Context(), p, t.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAssetResponse(c, h.files, asset))
}

// Create godoc
// @Summary      Create an asset
// @Description  The initial quantity becomes the first log entry
// @Tags         assets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        request body CreateAssetRequest true "Asset"
// @Success      201 {object} dto.Response{data=AssetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	var req CreateAssetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	asset, err := h.assetService.Create(c.Request.Context(), p, t.ID, inventory.CreateAssetInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Cost:         req.Cost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAssetResponse(c, h.files, asset))
}

// Update godoc
// @Summary      Update an asset
// @Description  A quantity change appends one log entry
// @Tags         assets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Asset ID" format(uuid)
// @Param        request body UpdateAssetRequest true "Changes"
// @Success      200 {object} dto.Response{data=AssetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateAssetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	asset, err := h.assetService.Update(c.Request.Context(), p, t.ID, id, inventory.UpdateAssetInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Cost:         req.Cost,
		Active:       req.Active,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAssetResponse(c, h.files, asset))
}

// Delete godoc
// @Summary      Disable an asset
// @Description  Assets are never removed; delete marks them disabled and keeps the log
// @Tags         assets
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Asset ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.assetService.Disable(c.Request.Context(), p, t.ID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadImage godoc
// @Summary      Set the asset image
// @Tags         assets
// @Accept       multipart/form-data
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Asset ID" format(uuid)
// @Param        file formData file true "Image"
// @Success      200 {object} dto.Response{data=AssetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets/{id}/image [post]
func (h *AssetHandler) UploadImage(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	file, ok := h.receiveFile(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.body.Close()

	asset, err := h.assetService.SetImage(c.Request.Context(), p, t.ID, id, inventory.ImageUpload{
		Name:        file.name,
		ContentType: file.contentType,
		Size:        file.size,
		Body:        file.body,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAssetResponse(c, h.files, asset))
}

// Logs godoc
// @Summary      Asset quantity history
// @Tags         assets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Asset ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]AssetLogResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/assets/{id}/logs [get]
func (h *AssetHandler) Logs(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	logs, err := h.assetService.Logs(c.Request.Context(), p, t.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAssetLogResponses(logs))
}
