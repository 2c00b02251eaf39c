package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// =====================
// Asset Request DTOs
// =====================

// CreateAssetRequest represents the request body for creating an asset
type CreateAssetRequest struct {
	Name         string          `json:"name" binding:"required,max=255"`
	SerialNumber string          `json:"serial_number" binding:"max=255"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
	Unit         string          `json:"unit" binding:"max=50"`
	Cost         decimal.Decimal `json:"cost"`
}

// UpdateAssetRequest represents the request body for updating an asset. A
// quantity change is logged with unit as its label.
type UpdateAssetRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=255"`
	SerialNumber *string          `json:"serial_number" binding:"omitempty,max=255"`
	Quantity     *int             `json:"quantity" binding:"omitempty,min=0"`
	Unit         string           `json:"unit" binding:"max=50"`
	Cost         *decimal.Decimal `json:"cost"`
	Active       *bool            `json:"active"`
}

// AssetListQuery represents query parameters for listing assets
type AssetListQuery struct {
	Search          string `form:"search" binding:"max=100"`
	Active          *bool  `form:"active"`
	IncludeDisabled bool   `form:"include_disabled"`
	SortBy          string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at name quantity cost"`
	SortOrder       string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q AssetListQuery) toFilter() inventory.AssetFilter {
	f := inventory.AssetFilter{
		Search:          q.Search,
		Active:          q.Active,
		IncludeDisabled: q.IncludeDisabled,
		SortBy:          q.SortBy,
		SortOrder:       q.SortOrder,
	}
	f.Page.Page, f.Page.PageSize = q.Page, q.PageSize
	return f
}

// =====================
// Asset Response DTOs
// =====================

// AssetResponse represents an inventory asset in API responses
type AssetResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	Name         string          `json:"name"`
	SerialNumber string          `json:"serial_number"`
	Image        string          `json:"image,omitempty"`
	Quantity     int             `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
	Active       bool            `json:"active"`
	Disabled     bool            `json:"disabled"`
	CreatedBy    *uuid.UUID      `json:"created_by"`
	UpdatedBy    *uuid.UUID      `json:"updated_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toAssetResponse(c *gin.Context, files FileURLs, a *inventory.Asset) AssetResponse {
	return AssetResponse{
		ID:           a.ID,
		TenantID:     a.TenantID,
		Name:         a.Name,
		SerialNumber: a.SerialNumber,
		Image:        fileURL(c, files, a.Image),
		Quantity:     a.Quantity,
		Cost:         a.Cost,
		Active:       a.Active,
		Disabled:     a.Disabled,
		CreatedBy:    a.CreatedBy,
		UpdatedBy:    a.UpdatedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAssetResponses(c *gin.Context, files FileURLs, assets []*inventory.Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(c, files, a))
	}
	return out
}

// AssetLogResponse is one entry of an asset's quantity history
type AssetLogResponse struct {
	ID        uuid.UUID  `json:"id"`
	AssetID   uuid.UUID  `json:"asset_id"`
	Quantity  int        `json:"quantity"`
	Change    int        `json:"change"`
	Unit      string     `json:"unit"`
	CreatedBy *uuid.UUID `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func toAssetLogResponses(logs []*inventory.AssetLog) []AssetLogResponse {
	out := make([]AssetLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AssetLogResponse{
			ID:        l.ID,
			AssetID:   l.AssetID,
			Quantity:  l.Quantity,
			Change:    l.Change,
			Unit:      l.Unit,
			CreatedBy: l.CreatedBy,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}
