package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService drives the billing pipeline: previewing and generating
// invoices from performance records, approving them, and tearing them down.
type InvoiceService struct {
	invoiceRepo    invoice.Repository
	ruleRepo       billing.RuleRepository
	recordRepo     billing.PerformanceRecordRepository
	sequenceRepo   ledger.SequenceRepository
	tx             shared.TransactionManager
	eventPublisher shared.EventPublisher
	taxRate        decimal.Decimal
	paymentTerms   int
	logger         *zap.Logger
}

// NewInvoiceService creates a new invoice service. paymentTermsDays is the
// configured due-date offset applied to generated invoices.
func NewInvoiceService(
	invoiceRepo invoice.Repository,
	ruleRepo billing.RuleRepository,
	recordRepo billing.PerformanceRecordRepository,
	sequenceRepo ledger.SequenceRepository,
	tx shared.TransactionManager,
	eventPublisher shared.EventPublisher,
	taxRate decimal.Decimal,
	paymentTermsDays int,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		ruleRepo:       ruleRepo,
		recordRepo:     recordRepo,
		sequenceRepo:   sequenceRepo,
		tx:             tx,
		eventPublisher: eventPublisher,
		taxRate:        taxRate,
		paymentTerms:   paymentTermsDays,
		logger:         logger,
	}
}

// PreviewResult is the dry-run output of a generation: the lines that would
// be billed and the totals they add up to, with nothing persisted.
type PreviewResult struct {
	ProjectID   uuid.UUID               `json:"project_id"`
	PeriodMonth string                  `json:"period_month"`
	Lines       []billing.LineCandidate `json:"lines"`
	RecordCount int                     `json:"record_count"`
	Subtotal    decimal.Decimal         `json:"subtotal"`
	TaxRate     decimal.Decimal         `json:"tax_rate"`
	Tax         decimal.Decimal         `json:"tax"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
}

// GenerateRequest carries the inputs of an invoice generation run. Lines are
// passed explicitly so the caller can adjust the preview output before
// committing; leaving PeriodStart/PeriodEnd unset defaults them to the
// calendar bounds of PeriodMonth.
type GenerateRequest struct {
	ProjectID    uuid.UUID               `json:"project_id"`
	CustomerID   uuid.UUID               `json:"customer_id"`
	CustomerName string                  `json:"customer_name"`
	PeriodMonth  string                  `json:"period_month"`
	PeriodStart  *time.Time              `json:"period_start,omitempty"`
	PeriodEnd    *time.Time              `json:"period_end,omitempty"`
	Lines        []billing.LineCandidate `json:"lines"`
}

// Preview runs the rule engine over the period's unbilled records without
// writing anything. Two previews over unchanged data return identical lines.
func (s *InvoiceService) Preview(ctx context.Context, projectID uuid.UUID, periodMonth string) (*PreviewResult, error) {
	periodStart, periodEnd, err := invoice.PeriodBounds(periodMonth)
	if err != nil {
		return nil, err
	}
	result, err := s.PreviewRange(ctx, projectID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	result.PeriodMonth = periodMonth
	return result, nil
}

// PreviewRange is Preview over explicit period bounds instead of a calendar
// month.
func (s *InvoiceService) PreviewRange(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) (*PreviewResult, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Project ID cannot be empty")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Period end cannot precede period start")
	}

	rules, records, err := s.loadGenerationInputs(ctx, projectID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	lines := billing.GenerateLines(rules, records)

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Amount)
	}
	tax := subtotal.Mul(s.taxRate).Round(2)

	return &PreviewResult{
		ProjectID:   projectID,
		Lines:       lines,
		RecordCount: len(records),
		Subtotal:    subtotal,
		TaxRate:     s.taxRate,
		Tax:         tax,
		TotalAmount: subtotal.Add(tax),
	}, nil
}

// Generate persists an invoice from the supplied line candidates, linking
// every consumed performance record to it in the same transaction. At most
// one invoice exists per (project, period); a second call fails with
// DUPLICATE_PERIOD.
func (s *InvoiceService) Generate(ctx context.Context, req GenerateRequest) (*invoice.Invoice, error) {
	if req.ProjectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Project ID cannot be empty")
	}
	if req.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Customer ID cannot be empty")
	}
	if req.CustomerName == "" {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "Customer name cannot be empty")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.ErrCodeValidation, "An invoice requires at least one line")
	}
	periodStart, periodEnd, err := invoice.PeriodBounds(req.PeriodMonth)
	if err != nil {
		return nil, err
	}
	if req.PeriodStart != nil {
		periodStart = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		periodEnd = *req.PeriodEnd
	}

	existing, err := s.invoiceRepo.FindByPeriod(ctx, req.ProjectID, req.PeriodMonth)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for an existing period invoice: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError(shared.ErrCodeDuplicatePeriod,
			fmt.Sprintf("Invoice %s already covers period %s", existing.InvoiceNumber, req.PeriodMonth))
	}

	seq, err := s.sequenceRepo.Next(ctx, ledger.PrefixInvoice, periodStart.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	invoiceNumber := ledger.FormatDocumentNumber(ledger.PrefixInvoice, periodStart.Year(), seq)

	inv, err := invoice.NewInvoice(invoiceNumber, req.ProjectID, req.CustomerID, req.CustomerName,
		req.PeriodMonth, periodStart, periodEnd, s.taxRate, s.paymentTerms, req.Lines)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			// A concurrent generation for the same period lost the race to the
			// unique index; surface it the same way as the pre-check.
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError(shared.ErrCodeDuplicatePeriod,
					fmt.Sprintf("An invoice already covers period %s", req.PeriodMonth))
			}
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		// Fixed-fee lines carry no provenance; only record-backed lines link back.
		if ids := inv.SourceRecordIDs(); len(ids) > 0 {
			if err := s.recordRepo.MarkInvoiced(ctx, ids, inv.ID); err != nil {
				return fmt.Errorf("failed to link performance records: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, inv)

	s.logger.Info("invoice generated",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("project_id", req.ProjectID.String()),
		zap.String("period_month", req.PeriodMonth),
		zap.Int("lines", len(inv.Lines)),
		zap.String("total_amount", inv.TotalAmount.String()),
	)

	return inv, nil
}

// Approve transitions a draft invoice to approved. The receivable the
// approval spawns is created by an event handler on a best-effort basis;
// its failure never rolls the approval back.
func (s *InvoiceService) Approve(ctx context.Context, invoiceID, approverID uuid.UUID) (*invoice.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.Approve(approverID); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save approved invoice: %w", err)
	}

	s.publishEvents(ctx, inv)

	s.logger.Info("invoice approved",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("approved_by", approverID.String()),
	)

	return inv, nil
}

// Cancel cancels an invoice; the attached receivable follows through the
// cancellation cascade handler
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, reason string) (*invoice.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save cancelled invoice: %w", err)
	}

	s.publishEvents(ctx, inv)

	s.logger.Info("invoice cancelled",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("reason", reason),
	)

	return inv, nil
}

// Delete removes a draft invoice and releases the performance records it
// consumed, so the period can be regenerated.
func (s *InvoiceService) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != invoice.StatusDraft {
		return shared.NewDomainError(shared.ErrCodeValidation,
			fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.recordRepo.UnlinkByInvoice(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to unlink performance records: %w", err)
		}
		if err := s.invoiceRepo.Delete(ctx, inv.ID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice deleted",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("released_records", len(inv.SourceRecordIDs())),
	)

	return nil
}

// Get returns one invoice with its lines
func (s *InvoiceService) Get(ctx context.Context, invoiceID uuid.UUID) (*invoice.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, invoiceID)
}

// List returns the project's invoices, newest first
func (s *InvoiceService) List(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (shared.Paginated[invoice.Invoice], error) {
	invoices, err := s.invoiceRepo.FindByProject(ctx, projectID, filter)
	if err != nil {
		return shared.Paginated[invoice.Invoice]{}, err
	}
	total, err := s.invoiceRepo.Count(ctx, projectID)
	if err != nil {
		return shared.Paginated[invoice.Invoice]{}, err
	}
	return shared.NewPaginated(invoices, total, filter.Page, filter.PageSize), nil
}

func (s *InvoiceService) loadGenerationInputs(ctx context.Context, projectID uuid.UUID, periodStart, periodEnd time.Time) ([]billing.Rule, []billing.PerformanceRecord, error) {
	rules, err := s.ruleRepo.FindActiveForPeriod(ctx, projectID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load billing rules: %w", err)
	}
	records, err := s.recordRepo.FindUnbilled(ctx, projectID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load performance records: %w", err)
	}
	return rules, records, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, inv *invoice.Invoice) {
	events := inv.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
	}
	inv.ClearDomainEvents()
}
