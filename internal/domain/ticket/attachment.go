package ticket

import (
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/shared"
)

// Attachment is a photo or document uploaded against a ticket
type Attachment struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	TicketID    uuid.UUID
	Name        string
	FileKey     string
	ContentType string
	Size        int64
	UploadedBy  uuid.UUID
}

// NewAttachment builds an attachment row for an uploaded blob
func NewAttachment(t *Ticket, name, key, contentType string, size int64, by uuid.UUID) (*Attachment, error) {
	if key == "" {
		return nil, shared.NewDomainError("INVALID_FILE", "File is required")
	}
	name = strings.TrimSpace(name)
	if len(name) > 255 {
		name = name[:255]
	}
	return &Attachment{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    t.TenantID,
		TicketID:    t.ID,
		Name:        name,
		FileKey:     key,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  by,
	}, nil
}
