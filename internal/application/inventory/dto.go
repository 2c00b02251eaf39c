package inventory

import (
	"io"

	"github.com/shopspring/decimal"
)

// CreateAssetInput contains the fields of a new asset
type CreateAssetInput struct {
	Name         string
	SerialNumber string
	Quantity     int
	Unit         string
	Cost         decimal.Decimal
}

// UpdateAssetInput contains editable fields; nil means unchanged. Unit labels
// the quantity log entry when Quantity changes.
type UpdateAssetInput struct {
	Name         *string
	SerialNumber *string
	Quantity     *int
	Unit         string
	Cost         *decimal.Decimal
	Active       *bool
}

// ImageUpload is an asset image received from a client
type ImageUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
