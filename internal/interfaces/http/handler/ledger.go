package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/logistics-erp/backend/internal/application/ledger"
	"github.com/logistics-erp/backend/internal/domain/ledger"
	"github.com/logistics-erp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles ledger document and reconciliation API endpoints
type LedgerHandler struct {
	BaseHandler
	paymentService    *ledgerapp.PaymentService
	autoCreateService *ledgerapp.AutoCreateService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(paymentService *ledgerapp.PaymentService, autoCreateService *ledgerapp.AutoCreateService) *LedgerHandler {
	return &LedgerHandler{
		paymentService:    paymentService,
		autoCreateService: autoCreateService,
	}
}

// RegisterRoutes registers ledger routes on the API group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lg := rg.Group("/ledger")
	{
		lg.GET("/documents", h.List)
		lg.GET("/documents/:id", h.GetByID)
		lg.POST("/documents/:id/payments", h.ApplyPayment)
		lg.POST("/documents/:id/cancel", h.Cancel)
		lg.POST("/reconcile", h.Reconcile)
		lg.GET("/tasks", h.ListTasks)
	}
}

// ===================== Request/Response DTOs =====================

// ApplyPaymentRequest records one payment or receipt against a document
type ApplyPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Date      string  `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Method    string  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CREDIT_CARD CHECK"`
	Reference string  `json:"reference"`
}

// CancelDocumentRequest carries the cancellation reason
type CancelDocumentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListDocumentsRequest filters the ledger document list
type ListDocumentsRequest struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=PAYABLE RECEIVABLE"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE CANCELLED"`
	PartyID  string `form:"party_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PaymentEntryResponse represents one recorded payment in API responses
type PaymentEntryResponse struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
}

// DocumentResponse represents a ledger document in API responses
type DocumentResponse struct {
	ID             string                 `json:"id"`
	Kind           string                 `json:"kind"`
	DocumentNumber string                 `json:"document_number"`
	PartyID        string                 `json:"party_id"`
	PartyName      string                 `json:"party_name"`
	SourceType     string                 `json:"source_type"`
	SourceID       string                 `json:"source_id"`
	SourceNumber   string                 `json:"source_number"`
	TotalAmount    float64                `json:"total_amount"`
	PaidAmount     float64                `json:"paid_amount"`
	Outstanding    float64                `json:"outstanding_amount"`
	DueDate        *time.Time             `json:"due_date,omitempty"`
	Status         string                 `json:"status"`
	PaymentStatus  string                 `json:"payment_status"`
	Entries        []PaymentEntryResponse `json:"entries"`
	LocationCode   string                 `json:"location_code,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason   string                 `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// ReconcileResponse reports the outcome of a reconciliation pass
type ReconcileResponse struct {
	Resolved int `json:"resolved"`
}

// ReconciliationTaskResponse represents an open repair task in API responses
type ReconciliationTaskResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	SourceType string     `json:"source_type"`
	SourceID   string     `json:"source_id"`
	Reason     string     `json:"reason"`
	Attempts   int        `json:"attempts"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ===================== Handlers =====================

// List returns ledger documents matching the kind/status/party filters
func (h *LedgerHandler) List(c *gin.Context) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.DocumentFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Kind != "" {
		kind := ledger.Kind(req.Kind)
		filter.Kind = &kind
	}
	if req.Status != "" {
		status := ledger.Status(req.Status)
		filter.Status = &status
	}
	if req.PartyID != "" {
		partyID, err := uuid.Parse(req.PartyID)
		if err != nil {
			h.BadRequest(c, "Invalid party ID format")
			return
		}
		filter.PartyID = &partyID
	}

	page, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]DocumentResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, toDocumentResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// GetByID returns one ledger document with its payment entries
func (h *LedgerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.paymentService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDocumentResponse(doc))
}

// ApplyPayment records a payment against the document and re-derives its status
func (h *LedgerHandler) ApplyPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			h.BadRequest(c, "Invalid payment date format")
			return
		}
	}

	doc, err := h.paymentService.ApplyPayment(c.Request.Context(), id, ledgerapp.PaymentRequest{
		Amount:    valueobject.NewMoney(decimal.NewFromFloat(req.Amount)),
		Date:      date,
		Method:    ledger.PaymentMethod(req.Method),
		Reference: req.Reference,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDocumentResponse(doc))
}

// Cancel cancels a document; documents with recorded payments are rejected
func (h *LedgerHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req CancelDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.paymentService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDocumentResponse(doc))
}

// Reconcile re-runs ledger creation for every open reconciliation task
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	resolved, err := h.autoCreateService.Reconcile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReconcileResponse{Resolved: resolved})
}

// ListTasks returns reconciliation tasks still awaiting repair
func (h *LedgerHandler) ListTasks(c *gin.Context) {
	tasks, err := h.autoCreateService.OpenTasks(c.Request.Context(), 100)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ReconciliationTaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, toTaskResponse(&tasks[i]))
	}

	h.Success(c, responses)
}

// ===================== Mappers =====================

func toDocumentResponse(doc *ledger.Document) DocumentResponse {
	entries := make([]PaymentEntryResponse, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entries = append(entries, PaymentEntryResponse{
			ID:        e.ID.String(),
			Date:      e.Date,
			Amount:    e.Amount.InexactFloat64(),
			Method:    string(e.Method),
			Reference: e.Reference,
		})
	}

	return DocumentResponse{
		ID:             doc.ID.String(),
		Kind:           doc.Kind.String(),
		DocumentNumber: doc.DocumentNumber,
		PartyID:        doc.PartyID.String(),
		PartyName:      doc.PartyName,
		SourceType:     string(doc.SourceType),
		SourceID:       doc.SourceID.String(),
		SourceNumber:   doc.SourceNumber,
		TotalAmount:    doc.TotalAmount.InexactFloat64(),
		PaidAmount:     doc.PaidAmount.InexactFloat64(),
		Outstanding:    doc.Outstanding.InexactFloat64(),
		DueDate:        doc.DueDate,
		Status:         doc.Status.String(),
		PaymentStatus:  string(doc.PaymentStatus),
		Entries:        entries,
		LocationCode:   doc.LocationCode,
		Notes:          doc.Notes,
		PaidAt:         doc.PaidAt,
		CancelledAt:    doc.CancelledAt,
		CancelReason:   doc.CancelReason,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		Version:        doc.Version,
	}
}

func toTaskResponse(task *ledger.ReconciliationTask) ReconciliationTaskResponse {
	return ReconciliationTaskResponse{
		ID:         task.ID.String(),
		Kind:       task.Kind.String(),
		SourceType: string(task.SourceType),
		SourceID:   task.SourceID.String(),
		Reason:     task.Reason,
		Attempts:   task.Attempts,
		Status:     string(task.Status),
		ResolvedAt: task.ResolvedAt,
		CreatedAt:  task.CreatedAt,
		UpdatedAt:  task.UpdatedAt,
	}
}
