package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// PaymentService mutates ledger documents: applying payments and receipts,
// cancelling, and cascading cancellations from source documents.
type PaymentService struct {
	docRepo        ledger.DocumentRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	docRepo ledger.DocumentRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		docRepo:        docRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// PaymentRequest carries one payment or receipt against a document
type PaymentRequest struct {
	Amount    valueobject.Money
	Date      time.Time
	Method    ledger.PaymentMethod
	Reference string
}

// ApplyPayment records a payment against the document and re-derives its
// status. The business-rule guards (overpayment, already settled) run before
// any state is written.
func (s *PaymentService) ApplyPayment(ctx context.Context, documentID uuid.UUID, req PaymentRequest) (*ledger.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	entry := ledger.NewPaymentEntry(date, req.Amount, req.Method, req.Reference)
	if err := doc.ApplyPayment(entry); err != nil {
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save ledger document: %w", err)
	}

	s.publishEvents(ctx, doc)

	s.logger.Info("payment applied",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("amount", entry.Amount.String()),
		zap.String("method", string(entry.Method)),
		zap.String("status", doc.Status.String()),
		zap.String("outstanding", doc.Outstanding.String()),
	)

	return doc, nil
}

// Cancel cancels a document through the normal path, which rejects documents
// with recorded payments
func (s *PaymentService) Cancel(ctx context.Context, documentID uuid.UUID, reason string) (*ledger.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := doc.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save cancelled ledger document: %w", err)
	}

	s.publishEvents(ctx, doc)

	s.logger.Info("ledger document cancelled",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("reason", reason),
	)

	return doc, nil
}

// CascadeCancel cancels the document spawned by a cancelled source document.
// An auto-paid document (the credit card case) is force-cancelled; there is
// no document to cancel when auto-creation never ran, which is not an error.
func (s *PaymentService) CascadeCancel(ctx context.Context, sourceID uuid.UUID, reason string) error {
	doc, err := s.docRepo.FindBySource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up ledger document for source %s: %w", sourceID, err)
	}
	if doc.IsCancelled() {
		return nil
	}

	if doc.PaidAmount.IsPositive() {
		err = doc.ForceCancel(reason)
	} else {
		err = doc.Cancel(reason)
	}
	if err != nil {
		return err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save cascade-cancelled ledger document: %w", err)
	}

	s.publishEvents(ctx, doc)

	s.logger.Info("ledger document cancelled in cascade",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("source_id", sourceID.String()),
		zap.String("reason", reason),
	)

	return nil
}

// Get returns one ledger document
func (s *PaymentService) Get(ctx context.Context, documentID uuid.UUID) (*ledger.Document, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Refresh(time.Now())
	return doc, nil
}

// List returns ledger documents matching the filter, with statuses refreshed
// against the clock
func (s *PaymentService) List(ctx context.Context, filter ledger.DocumentFilter) (shared.Paginated[ledger.Document], error) {
	docs, err := s.docRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ledger.Document]{}, err
	}
	now := time.Now()
	for i := range docs {
		docs[i].Refresh(now)
	}
	total, err := s.docRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ledger.Document]{}, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return shared.NewPaginated(docs, total, page, pageSize), nil
}

func (s *PaymentService) publishEvents(ctx context.Context, doc *ledger.Document) {
	events := doc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish ledger document events",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
	}
	doc.ClearDomainEvents()
}
