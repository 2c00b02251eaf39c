package ticket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/domain/identity"
	"github.com/helpdesk/backend/internal/domain/shared"
	"github.com/helpdesk/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FileStore persists uploaded blobs by key
type FileStore interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// AllowedContentTypes is the upload whitelist. SVG is not accepted.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"image/heic":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

const (
	slotJobCard    = "job-cards"
	slotInvoice    = "invoices"
	slotAttachment = "attachments"
)

// UploadJobCard stores a job card, replacing and deleting any previous one
func (s *TicketService) UploadJobCard(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, file FileUpload) (*ticket.Ticket, error) {
	return s.replaceDocument(ctx, p, tenantID, id, slotJobCard, &file, func(t *ticket.Ticket, key string) (string, error) {
		return t.ReplaceJobCard(key), nil
	})
}

// DeleteJobCard clears the job card slot
func (s *TicketService) DeleteJobCard(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	return s.replaceDocument(ctx, p, tenantID, id, slotJobCard, nil, func(t *ticket.Ticket, _ string) (string, error) {
		if t.JobCard == "" {
			return "", shared.NewDomainError("NOT_FOUND", "Ticket has no job card")
		}
		return t.ReplaceJobCard(""), nil
	})
}

// UploadInvoice stores an invoice with an optional amount, replacing any previous file
func (s *TicketService) UploadInvoice(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, file FileUpload, amount *decimal.Decimal) (*ticket.Ticket, error) {
	return s.replaceDocument(ctx, p, tenantID, id, slotInvoice, &file, func(t *ticket.Ticket, key string) (string, error) {
		return t.ReplaceInvoice(key, amount)
	})
}

// DeleteInvoice clears the invoice slot. The invoice amount is kept.
func (s *TicketService) DeleteInvoice(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) (*ticket.Ticket, error) {
	return s.replaceDocument(ctx, p, tenantID, id, slotInvoice, nil, func(t *ticket.Ticket, _ string) (string, error) {
		if t.Invoice == "" {
			return "", shared.NewDomainError("NOT_FOUND", "Ticket has no invoice")
		}
		return t.ReplaceInvoice("", nil)
	})
}

// replaceDocument stores the new blob first, then swaps the slot. The previous
// blob is deleted only after the ticket was written; a failed write removes the
// new blob instead.
func (s *TicketService) replaceDocument(
	ctx context.Context,
	p identity.Principal,
	tenantID, id uuid.UUID,
	slot string,
	file *FileUpload,
	swap func(t *ticket.Ticket, key string) (string, error),
) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketAttachDocument); err != nil {
		return nil, err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	key := ""
	if file != nil {
		if key, err = s.store(ctx, t, slot, *file); err != nil {
			return nil, err
		}
	}
	old, err := swap(t, key)
	if err == nil {
		err = s.save(ctx, t)
	}
	if err != nil {
		s.deleteFiles(ctx, key)
		return nil, err
	}
	s.deleteFiles(ctx, old)
	return t, nil
}

// ListAttachments returns the ticket's photos and documents
func (s *TicketService) ListAttachments(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID) ([]*ticket.Attachment, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketView); err != nil {
		return nil, err
	}
	if _, err := s.ticketRepo.FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.attachmentRepo.FindByTicket(ctx, tenantID, id)
}

// AddAttachment uploads a photo or document against the ticket
func (s *TicketService) AddAttachment(ctx context.Context, p identity.Principal, tenantID, id uuid.UUID, file FileUpload) (*ticket.Attachment, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketUploadAttachment); err != nil {
		return nil, err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	key, err := s.store(ctx, t, slotAttachment, file)
	if err != nil {
		return nil, err
	}
	a, err := ticket.NewAttachment(t, file.Name, key, file.ContentType, file.Size, p.UserID)
	if err == nil {
		err = s.attachmentRepo.Create(ctx, a)
	}
	if err != nil {
		s.deleteFiles(ctx, key)
		return nil, err
	}
	return a, nil
}

// DeleteAttachment removes an attachment. Managers may remove any; others only their own.
func (s *TicketService) DeleteAttachment(ctx context.Context, p identity.Principal, tenantID, id, attachmentID uuid.UUID) error {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketUploadAttachment); err != nil {
		return err
	}
	a, err := s.attachmentRepo.FindByID(ctx, tenantID, attachmentID)
	if err != nil {
		return err
	}
	if a.TicketID != id {
		return shared.ErrNotFound
	}
	if a.UploadedBy != p.UserID && !identity.Can(p.Role, identity.ActionTicketAttachDocument) {
		return shared.ErrForbidden
	}
	if err := s.attachmentRepo.Delete(ctx, tenantID, attachmentID); err != nil {
		return err
	}
	s.deleteFiles(ctx, a.FileKey)
	return nil
}

// LinkAsset attaches an active inventory asset of the tenant
func (s *TicketService) LinkAsset(ctx context.Context, p identity.Principal, tenantID, id, assetID uuid.UUID) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketLinkAsset); err != nil {
		return nil, err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	asset, err := s.assetRepo.FindByID(ctx, tenantID, assetID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Asset does not belong to this tenant")
		}
		return nil, err
	}
	if asset.Disabled {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Asset is disabled")
	}
	if err := t.LinkAsset(assetID); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.LinkAsset(ctx, tenantID, id, assetID); err != nil {
		return nil, fmt.Errorf("link asset: %w", err)
	}
	return t, nil
}

// UnlinkAsset detaches an asset from the ticket
func (s *TicketService) UnlinkAsset(ctx context.Context, p identity.Principal, tenantID, id, assetID uuid.UUID) (*ticket.Ticket, error) {
	if err := identity.Authorize(p, tenantID, identity.ActionTicketLinkAsset); err != nil {
		return nil, err
	}
	t, err := s.ticketRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := t.UnlinkAsset(assetID); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.UnlinkAsset(ctx, tenantID, id, assetID); err != nil {
		return nil, fmt.Errorf("unlink asset: %w", err)
	}
	return t, nil
}

func (s *TicketService) store(ctx context.Context, t *ticket.Ticket, slot string, file FileUpload) (string, error) {
	if file.Body == nil {
		return "", shared.NewDomainError("INVALID_FILE", "File is required")
	}
	contentType := normalizeContentType(file.ContentType)
	if !AllowedContentTypes[contentType] {
		return "", shared.NewDomainError("INVALID_FILE", "File type is not allowed")
	}
	key := path.Join("tickets", t.TenantID.String(), t.ID.String(), slot, uuid.NewString()+fileExt(file.Name))
	if err := s.files.Save(ctx, key, file.Body, file.Size, contentType); err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}
	return key, nil
}

func (s *TicketService) deleteFiles(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.files.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete stored file", zap.String("key", key), zap.Error(err))
		}
	}
}

func normalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mediaType
}

func fileExt(name string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
