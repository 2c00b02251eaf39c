package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	appticket "github.com/helpdesk/backend/internal/application/ticket"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// FileField is the multipart field every upload endpoint reads
const FileField = "file"

// receivedFile is an open multipart file. The caller closes body.
type receivedFile struct {
	name        string
	contentType string
	size        int64
	body        multipart.File
}

// receiveFile opens the uploaded file, answering 400 or 413 when it is missing
// or too large. The declared part content type wins; the extension is the fallback.
func (h *BaseHandler) receiveFile(c *gin.Context, maxSize int64) (*receivedFile, bool) {
	header, err := c.FormFile(FileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body too large")
			return nil, false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, "File is required")
		return nil, false
	}
	if maxSize > 0 && header.Size > maxSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge,
			"File exceeds the maximum size of "+strconv.FormatInt(maxSize, 10)+" bytes")
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return &receivedFile{
		name:        filepath.Base(header.Filename),
		contentType: contentType,
		size:        header.Size,
		body:        f,
	}, true
}

func (f *receivedFile) ticketUpload() appticket.FileUpload {
	return appticket.FileUpload{
		Name:        f.name,
		ContentType: f.contentType,
		Size:        f.size,
		Body:        f.body,
	}
}

// UploadJobCard godoc
// @Summary      Upload a job card
// @Description  Replaces the ticket's job card; the previous file is deleted
// @Tags         tickets
// @Accept       multipart/form-data
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        file formData file true "Job card"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/job-card [post]
func (h *TicketHandler) UploadJobCard(c *gin.Context) {
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

	tk, err := h.ticketService.UploadJobCard(c.Request.Context(), p, t.ID, id, file.ticketUpload())
	h.respond(c, tk, err)
}

// DeleteJobCard godoc
// @Summary      Remove the job card
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/job-card [delete]
func (h *TicketHandler) DeleteJobCard(c *gin.Context) {
	h.transition(c, h.ticketService.DeleteJobCard)
}

// UploadInvoice godoc
// @Summary      Upload an invoice
// @Description  Replaces the ticket's invoice, optionally setting invoice_amount
// @Tags         tickets
// @Accept       multipart/form-data
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        file formData file true "Invoice"
// @Param        invoice_amount formData string false "Invoice amount"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/invoice [post]
func (h *TicketHandler) UploadInvoice(c *gin.Context) {
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

	var amount *decimal.Decimal
	if raw := c.PostForm("invoice_amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "invoice_amount", Message: "Must be a decimal number"}})
			return
		}
		amount = &d
	}

	tk, err := h.ticketService.UploadInvoice(c.Request.Context(), p, t.ID, id, file.ticketUpload(), amount)
	h.respond(c, tk, err)
}

// DeleteInvoice godoc
// @Summary      Remove the invoice
// @Description  Deletes the invoice file; the invoice amount is kept
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/invoice [delete]
func (h *TicketHandler) DeleteInvoice(c *gin.Context) {
	h.transition(c, h.ticketService.DeleteInvoice)
}

// ListAttachments godoc
// @Summary      List ticket attachments
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]AttachmentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/attachments [get]
func (h *TicketHandler) ListAttachments(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	attachments, err := h.ticketService.ListAttachments(c.Request.Context(), p, t.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAttachmentResponses(c, h.files, attachments))
}

// AddAttachment godoc
// @Summary      Upload a ticket photo or document
// @Tags         tickets
// @Accept       multipart/form-data
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        file formData file true "Photo or document"
// @Success      201 {object} dto.Response{data=AttachmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/attachments [post]
func (h *TicketHandler) AddAttachment(c *gin.Context) {
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

	a, err := h.ticketService.AddAttachment(c.Request.Context(), p, t.ID, id, file.ticketUpload())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAttachmentResponse(c, h.files, a))
}

// DeleteAttachment godoc
// @Summary      Delete a ticket attachment
// @Description  Allowed for the uploader and for admins and site managers
// @Tags         tickets
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        attachmentId path string true "Attachment ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/attachments/{attachmentId} [delete]
func (h *TicketHandler) DeleteAttachment(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := h.pathUUID(c, "attachmentId")
	if !ok {
		return
	}
	if err := h.ticketService.DeleteAttachment(c.Request.Context(), p, t.ID, id, attachmentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LinkAsset godoc
// @Summary      Link an inventory asset
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body LinkAssetRequest true "Asset"
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/assets [post]
func (h *TicketHandler) LinkAsset(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req LinkAssetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tk, err := h.ticketService.LinkAsset(c.Request.Context(), p, t.ID, id, req.AssetID)
	h.respond(c, tk, err)
}

// UnlinkAsset godoc
// @Summary      Unlink an inventory asset
// @Tags         tickets
// @Produce      json
// @Param        tenant_slug path string true "Tenant slug"
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        assetId path string true "Asset ID" format(uuid)
// @Success      200 {object} dto.Response{data=TicketResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /{tenant_slug}/tickets/{id}/assets/{assetId} [delete]
func (h *TicketHandler) UnlinkAsset(c *gin.Context) {
	p, t, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	assetID, ok := h.pathUUID(c, "assetId")
	if !ok {
		return
	}
	tk, err := h.ticketService.UnlinkAsset(c.Request.Context(), p, t.ID, id, assetID)
	h.respond(c, tk, err)
}
