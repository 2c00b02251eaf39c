package ticket

import (
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTicketInput contains the caller-supplied fields of a new ticket. Tenant
// and reporter always come from the authenticated caller.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	SiteID      *uuid.UUID
}

// UpdateTicketInput contains editable fields; nil means unchanged
type UpdateTicketInput struct {
	Title         *string
	Description   *string
	Priority      *string
	SiteID        *uuid.UUID
	ClearSite     bool
	InvoiceAmount *decimal.Decimal
}

// CloseTicketInput carries the optional rating and feedback given on close
type CloseTicketInput struct {
	Rating   *int
	Feedback string
}

// FileUpload is a file received from a client
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
