package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/logistics-erp/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SourceDocument is the normalized view of an upstream document (purchase
// order or invoice) that spawns a ledger document. Payable and receivable
// creation share this one shape and one code path.
type SourceDocument struct {
	Kind          ledger.Kind
	SourceType    ledger.SourceType
	SourceID      uuid.UUID
	SourceNumber  string
	PartyID       uuid.UUID
	PartyName     string
	Total         valueobject.Money
	DueDate       *time.Time
	PaymentMethod ledger.PaymentMethod
	LocationCode  string
}

// AutoCreateService creates ledger documents from upstream approvals.
// Creation is idempotent per source document and best-effort from the
// caller's point of view: a failure never propagates into the primary
// operation, it leaves a durable reconciliation task instead.
type AutoCreateService struct {
	docRepo        ledger.DocumentRepository
	sequenceRepo   ledger.SequenceRepository
	taskRepo       ledger.ReconciliationTaskRepository
	orderRepo      trade.PurchaseOrderRepository
	invoiceRepo    invoice.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAutoCreateService creates a new auto-creation service
func NewAutoCreateService(
	docRepo ledger.DocumentRepository,
	sequenceRepo ledger.SequenceRepository,
	taskRepo ledger.ReconciliationTaskRepository,
	orderRepo trade.PurchaseOrderRepository,
	invoiceRepo invoice.Repository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *AutoCreateService {
	return &AutoCreateService{
		docRepo:        docRepo,
		sequenceRepo:   sequenceRepo,
		taskRepo:       taskRepo,
		orderRepo:      orderRepo,
		invoiceRepo:    invoiceRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Ensure returns the ledger document for the source, creating it when absent.
// Calling it twice for the same source never creates two documents: the store
// enforces a unique index on source_id, and a create race resolves to the
// winner's document. An existing document missing its location tag gets
// exactly that field backfilled from the source.
func (s *AutoCreateService) Ensure(ctx context.Context, src SourceDocument) (*ledger.Document, error) {
	existing, err := s.docRepo.FindBySource(ctx, src.SourceID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up ledger document for source %s: %w", src.SourceID, err)
	}
	if existing != nil {
		return s.repair(ctx, existing, src)
	}

	doc, err := s.create(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		// Lost a create race: the unique index on source_id kept the store
		// consistent, so adopt the winner's document.
		if errors.Is(err, shared.ErrAlreadyExists) {
			winner, findErr := s.docRepo.FindBySource(ctx, src.SourceID)
			if errors.Is(findErr, shared.ErrNotFound) {
				// Not a source race after all: the collision was on the
				// document number, which adoption cannot resolve.
				return nil, shared.NewDomainError(shared.ErrCodeDuplicateLedger,
					fmt.Sprintf("Ledger document number collision for source %s", src.SourceID))
			}
			if findErr != nil {
				return nil, fmt.Errorf("failed to fetch the winning ledger document for source %s: %w", src.SourceID, findErr)
			}
			s.logger.Info("ledger document already created concurrently",
				zap.String("source_id", src.SourceID.String()),
				zap.String("document_number", winner.DocumentNumber))
			return winner, nil
		}
		return nil, fmt.Errorf("failed to save ledger document: %w", err)
	}

	s.publishEvents(ctx, doc)

	s.logger.Info("ledger document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("kind", doc.Kind.String()),
		zap.String("source_type", string(doc.SourceType)),
		zap.String("source_number", doc.SourceNumber),
		zap.String("total_amount", doc.TotalAmount.String()),
		zap.String("status", doc.Status.String()),
	)

	return doc, nil
}

func (s *AutoCreateService) create(ctx context.Context, src SourceDocument) (*ledger.Document, error) {
	year := time.Now().UTC().Year()
	prefix := ledger.NumberPrefix(src.Kind)
	seq, err := s.sequenceRepo.Next(ctx, prefix, year)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate document number: %w", err)
	}
	number := ledger.FormatDocumentNumber(prefix, year, seq)

	doc, err := ledger.NewDocument(src.Kind, number, src.PartyID, src.PartyName,
		src.SourceType, src.SourceID, src.SourceNumber, src.Total, src.DueDate)
	if err != nil {
		return nil, err
	}
	doc.LocationCode = src.LocationCode

	// Credit card purchases are charged at order time, so the payable is born
	// settled with a synthetic entry referencing the card charge.
	if src.PaymentMethod == ledger.MethodCreditCard {
		entry := ledger.NewPaymentEntry(time.Now(), src.Total, ledger.MethodCreditCard,
			fmt.Sprintf("CC-%s", src.SourceNumber))
		if err := doc.ApplyPayment(entry); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// repair backfills the location tag on documents created before the field
// existed. Nothing else on the document is touched.
func (s *AutoCreateService) repair(ctx context.Context, doc *ledger.Document, src SourceDocument) (*ledger.Document, error) {
	if !doc.RepairLocation(src.LocationCode) {
		return doc, nil
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save repaired ledger document: %w", err)
	}
	s.logger.Info("backfilled location tag on ledger document",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("location_code", src.LocationCode))
	return doc, nil
}

// EnsureBestEffort runs Ensure without letting a failure reach the caller.
// The failure is logged and recorded as an open reconciliation task so the
// repair pass can retry it; the primary operation that triggered the hook
// proceeds regardless.
func (s *AutoCreateService) EnsureBestEffort(ctx context.Context, src SourceDocument) {
	if _, err := s.Ensure(ctx, src); err != nil {
		s.logger.Error("ledger auto-creation failed, recording reconciliation task",
			zap.String("kind", src.Kind.String()),
			zap.String("source_type", string(src.SourceType)),
			zap.String("source_id", src.SourceID.String()),
			zap.String("source_number", src.SourceNumber),
			zap.Error(err))
		s.recordFailure(ctx, src, err)
	}
}

func (s *AutoCreateService) recordFailure(ctx context.Context, src SourceDocument, cause error) {
	task, err := s.taskRepo.FindBySource(ctx, src.SourceID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("failed to look up reconciliation task",
			zap.String("source_id", src.SourceID.String()),
			zap.Error(err))
		return
	}
	if task == nil {
		task = ledger.NewReconciliationTask(src.Kind, src.SourceType, src.SourceID, cause.Error())
	} else {
		task.RecordAttempt(cause.Error())
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		s.logger.Error("failed to save reconciliation task",
			zap.String("source_id", src.SourceID.String()),
			zap.Error(err))
	}
}

// Reconcile re-runs creation for every open reconciliation task and resolves
// the ones that now succeed. It returns how many tasks were resolved.
func (s *AutoCreateService) Reconcile(ctx context.Context) (int, error) {
	tasks, err := s.taskRepo.FindOpen(ctx, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to load open reconciliation tasks: %w", err)
	}

	resolved := 0
	for i := range tasks {
		task := &tasks[i]
		src, err := s.sourceFor(ctx, task)
		if err != nil {
			s.logger.Warn("reconciliation source unavailable",
				zap.String("task_id", task.ID.String()),
				zap.String("source_id", task.SourceID.String()),
				zap.Error(err))
			task.RecordAttempt(err.Error())
			if saveErr := s.taskRepo.Save(ctx, task); saveErr != nil {
				s.logger.Error("failed to save reconciliation task", zap.Error(saveErr))
			}
			continue
		}

		if _, err := s.Ensure(ctx, src); err != nil {
			task.RecordAttempt(err.Error())
			if saveErr := s.taskRepo.Save(ctx, task); saveErr != nil {
				s.logger.Error("failed to save reconciliation task", zap.Error(saveErr))
			}
			continue
		}

		task.Resolve()
		if err := s.taskRepo.Save(ctx, task); err != nil {
			s.logger.Error("failed to resolve reconciliation task",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			continue
		}
		resolved++
	}

	s.logger.Info("reconciliation pass finished",
		zap.Int("open_tasks", len(tasks)),
		zap.Int("resolved", resolved))

	return resolved, nil
}

// OpenTasks lists reconciliation tasks still awaiting repair, oldest first
func (s *AutoCreateService) OpenTasks(ctx context.Context, limit int) ([]ledger.ReconciliationTask, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.taskRepo.FindOpen(ctx, limit)
}

// sourceFor reloads the upstream document a task points at and normalizes it
func (s *AutoCreateService) sourceFor(ctx context.Context, task *ledger.ReconciliationTask) (SourceDocument, error) {
	switch task.SourceType {
	case ledger.SourceTypePurchaseOrder:
		order, err := s.orderRepo.FindByID(ctx, task.SourceID)
		if err != nil {
			return SourceDocument{}, err
		}
		return PayableSource(order), nil
	case ledger.SourceTypeInvoice:
		inv, err := s.invoiceRepo.FindByID(ctx, task.SourceID)
		if err != nil {
			return SourceDocument{}, err
		}
		return ReceivableSource(inv), nil
	default:
		return SourceDocument{}, shared.NewDomainError(shared.ErrCodeValidation,
			fmt.Sprintf("Reconciliation task %s has unsupported source type %s", task.ID, task.SourceType))
	}
}

// PayableSource normalizes an approved purchase order into the shared
// auto-creation shape
func PayableSource(order *trade.PurchaseOrder) SourceDocument {
	due := order.DueDate()
	return SourceDocument{
		Kind:          ledger.KindPayable,
		SourceType:    ledger.SourceTypePurchaseOrder,
		SourceID:      order.ID,
		SourceNumber:  order.OrderNumber,
		PartyID:       order.SupplierID,
		PartyName:     order.SupplierName,
		Total:         order.TotalAmount,
		DueDate:       &due,
		PaymentMethod: order.PaymentMethod,
		LocationCode:  order.LocationCode,
	}
}

// ReceivableSource normalizes an approved invoice into the shared
// auto-creation shape
func ReceivableSource(inv *invoice.Invoice) SourceDocument {
	return SourceDocument{
		Kind:         ledger.KindReceivable,
		SourceType:   ledger.SourceTypeInvoice,
		SourceID:     inv.ID,
		SourceNumber: inv.InvoiceNumber,
		PartyID:      inv.CustomerID,
		PartyName:    inv.CustomerName,
		Total:        valueobject.NewMoney(inv.TotalAmount),
		DueDate:      inv.DueDate(),
	}
}

func (s *AutoCreateService) publishEvents(ctx context.Context, doc *ledger.Document) {
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
