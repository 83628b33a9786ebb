package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/logistics-erp/backend/internal/application/billing"
	"github.com/logistics-erp/backend/internal/domain/billing"
	"github.com/logistics-erp/backend/internal/domain/invoice"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles billing and invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// RegisterRoutes registers invoice routes on the API group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/preview", h.Preview)
		invoices.POST("", h.Generate)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.GetByID)
		invoices.POST("/:id/approve", h.Approve)
		invoices.POST("/:id/cancel", h.Cancel)
		invoices.DELETE("/:id", h.Delete)
	}
}

// ===================== Request/Response DTOs =====================

// PreviewInvoiceRequest asks for a dry run of invoice generation
type PreviewInvoiceRequest struct {
	ProjectID   string `json:"project_id" binding:"required,uuid"`
	PeriodMonth string `json:"period_month" binding:"omitempty,periodmonth"`
	PeriodStart string `json:"period_start" binding:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" binding:"omitempty,datetime=2006-01-02"`
}

// InvoiceLineRequest is one caller-supplied billing line. Lines usually come
// from a preview, possibly adjusted before committing.
type InvoiceLineRequest struct {
	Description     string   `json:"description" binding:"required"`
	Quantity        float64  `json:"quantity" binding:"required,gt=0"`
	Unit            string   `json:"unit"`
	UnitPrice       float64  `json:"unit_price" binding:"min=0"`
	GroupingKey     string   `json:"grouping_key"`
	GroupingValue   string   `json:"grouping_value"`
	RuleID          string   `json:"rule_id" binding:"omitempty,uuid"`
	SourceRecordIDs []string `json:"source_record_ids" binding:"omitempty,dive,uuid"`
}

// GenerateInvoiceRequest commits an invoice from explicit lines
type GenerateInvoiceRequest struct {
	ProjectID    string               `json:"project_id" binding:"required,uuid"`
	CustomerID   string               `json:"customer_id" binding:"required,uuid"`
	CustomerName string               `json:"customer_name" binding:"required"`
	PeriodMonth  string               `json:"period_month" binding:"required,periodmonth"`
	PeriodStart  string               `json:"period_start" binding:"omitempty,datetime=2006-01-02"`
	PeriodEnd    string               `json:"period_end" binding:"omitempty,datetime=2006-01-02"`
	Lines        []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ApproveInvoiceRequest carries the approver of an invoice
type ApproveInvoiceRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required,uuid"`
}

// CancelInvoiceRequest carries the cancellation reason
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListInvoicesRequest filters the invoice list
type ListInvoicesRequest struct {
	ProjectID string `form:"project_id" binding:"required,uuid"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID              string   `json:"id"`
	SortOrder       int      `json:"sort_order"`
	Description     string   `json:"description"`
	Quantity        float64  `json:"quantity"`
	Unit            string   `json:"unit,omitempty"`
	UnitPrice       float64  `json:"unit_price"`
	Amount          float64  `json:"amount"`
	GroupingKey     string   `json:"grouping_key"`
	GroupingValue   string   `json:"grouping_value,omitempty"`
	RuleID          string   `json:"rule_id,omitempty"`
	SourceRecordIDs []string `json:"source_record_ids,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               string                `json:"id"`
	InvoiceNumber    string                `json:"invoice_number"`
	ProjectID        string                `json:"project_id"`
	CustomerID       string                `json:"customer_id"`
	CustomerName     string                `json:"customer_name"`
	PeriodMonth      string                `json:"period_month"`
	PeriodStart      time.Time             `json:"period_start"`
	PeriodEnd        time.Time             `json:"period_end"`
	Subtotal         float64               `json:"subtotal"`
	TaxRate          float64               `json:"tax_rate"`
	Tax              float64               `json:"tax"`
	TotalAmount      float64               `json:"total_amount"`
	PaymentTermsDays int                   `json:"payment_terms_days"`
	Status           string                `json:"status"`
	Lines            []InvoiceLineResponse `json:"lines"`
	ApprovedBy       string                `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time            `json:"approved_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason     string                `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// PreviewLineResponse represents a candidate line in a preview response
type PreviewLineResponse struct {
	Description     string   `json:"description"`
	Quantity        float64  `json:"quantity"`
	Unit            string   `json:"unit,omitempty"`
	UnitPrice       float64  `json:"unit_price"`
	Amount          float64  `json:"amount"`
	GroupingKey     string   `json:"grouping_key"`
	GroupingValue   string   `json:"grouping_value,omitempty"`
	RuleID          string   `json:"rule_id,omitempty"`
	SourceRecordIDs []string `json:"source_record_ids,omitempty"`
}

// PreviewInvoiceResponse is the dry-run output of invoice generation
type PreviewInvoiceResponse struct {
	ProjectID   string                `json:"project_id"`
	PeriodMonth string                `json:"period_month"`
	Lines       []PreviewLineResponse `json:"lines"`
	RecordCount int                   `json:"record_count"`
	Subtotal    float64               `json:"subtotal"`
	TaxRate     float64               `json:"tax_rate"`
	Tax         float64               `json:"tax"`
	TotalAmount float64               `json:"total_amount"`
}

// ===================== Handlers =====================

// Preview runs the rule engine over the period without persisting anything
func (h *InvoiceHandler) Preview(c *gin.Context) {
	var req PreviewInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		h.BadRequest(c, "Invalid project ID format")
		return
	}

	var result *billingapp.PreviewResult
	switch {
	case req.PeriodMonth != "":
		result, err = h.invoiceService.Preview(c.Request.Context(), projectID, req.PeriodMonth)
	case req.PeriodStart != "" && req.PeriodEnd != "":
		start, _ := time.Parse("2006-01-02", req.PeriodStart)
		end, _ := time.Parse("2006-01-02", req.PeriodEnd)
		result, err = h.invoiceService.PreviewRange(c.Request.Context(), projectID, start, end)
	default:
		h.BadRequest(c, "Either period_month or both period_start and period_end are required")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPreviewResponse(result))
}

// Generate commits an invoice from the supplied lines
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		h.BadRequest(c, "Invalid project ID format")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	lines, err := toLineCandidates(req.Lines)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	genReq := billingapp.GenerateRequest{
		ProjectID:    projectID,
		CustomerID:   customerID,
		CustomerName: req.CustomerName,
		PeriodMonth:  req.PeriodMonth,
		Lines:        lines,
	}
	if req.PeriodStart != "" {
		start, _ := time.Parse("2006-01-02", req.PeriodStart)
		genReq.PeriodStart = &start
	}
	if req.PeriodEnd != "" {
		end, _ := time.Parse("2006-01-02", req.PeriodEnd)
		genReq.PeriodEnd = &end
	}

	inv, err := h.invoiceService.Generate(c.Request.Context(), genReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(inv))
}

// GetByID returns one invoice with its lines
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(inv))
}

// List returns the project's invoices, newest period first
func (h *InvoiceHandler) List(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		h.BadRequest(c, "Invalid project ID format")
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	page, err := h.invoiceService.List(c.Request.Context(), projectID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]InvoiceResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, toInvoiceResponse(&page.Items[i]))
	}

	h.SuccessWithMeta(c, responses, page.Total, filter.Page, filter.PageSize)
}

// Approve transitions a draft invoice to approved; the receivable follows
// through the auto-creation hook
func (h *InvoiceHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req ApproveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	approverID, err := uuid.Parse(req.ApprovedBy)
	if err != nil {
		h.BadRequest(c, "Invalid approver ID format")
		return
	}

	inv, err := h.invoiceService.Approve(c.Request.Context(), id, approverID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(inv))
}

// Cancel cancels an invoice; the attached receivable is cancelled in cascade
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoiceService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(inv))
}

// Delete removes a draft invoice and releases its performance records
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ===================== Mappers =====================

func toLineCandidates(reqs []InvoiceLineRequest) ([]billing.LineCandidate, error) {
	lines := make([]billing.LineCandidate, 0, len(reqs))
	for _, r := range reqs {
		ruleID := uuid.Nil
		if r.RuleID != "" {
			parsed, err := uuid.Parse(r.RuleID)
			if err != nil {
				return nil, err
			}
			ruleID = parsed
		}
		sourceIDs := make([]uuid.UUID, 0, len(r.SourceRecordIDs))
		for _, s := range r.SourceRecordIDs {
			parsed, err := uuid.Parse(s)
			if err != nil {
				return nil, err
			}
			sourceIDs = append(sourceIDs, parsed)
		}
		lines = append(lines, billing.NewLineCandidate(
			r.Description,
			decimal.NewFromFloat(r.Quantity),
			r.Unit,
			decimal.NewFromFloat(r.UnitPrice),
			billing.GroupingKey(r.GroupingKey),
			r.GroupingValue,
			ruleID,
			sourceIDs,
		))
	}
	return lines, nil
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, toInvoiceLineResponse(line))
	}

	resp := InvoiceResponse{
		ID:               inv.ID.String(),
		InvoiceNumber:    inv.InvoiceNumber,
		ProjectID:        inv.ProjectID.String(),
		CustomerID:       inv.CustomerID.String(),
		CustomerName:     inv.CustomerName,
		PeriodMonth:      inv.PeriodMonth,
		PeriodStart:      inv.PeriodStart,
		PeriodEnd:        inv.PeriodEnd,
		Subtotal:         inv.Subtotal.InexactFloat64(),
		TaxRate:          inv.TaxRate.InexactFloat64(),
		Tax:              inv.Tax.InexactFloat64(),
		TotalAmount:      inv.TotalAmount.InexactFloat64(),
		PaymentTermsDays: inv.PaymentTermsDays,
		Status:           string(inv.Status),
		Lines:            lines,
		ApprovedAt:       inv.ApprovedAt,
		CancelledAt:      inv.CancelledAt,
		CancelReason:     inv.CancelReason,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
	if inv.ApprovedBy != nil {
		resp.ApprovedBy = inv.ApprovedBy.String()
	}
	return resp
}

func toInvoiceLineResponse(line invoice.Line) InvoiceLineResponse {
	resp := InvoiceLineResponse{
		ID:            line.ID.String(),
		SortOrder:     line.SortOrder,
		Description:   line.Description,
		Quantity:      line.Quantity.InexactFloat64(),
		Unit:          line.Unit,
		UnitPrice:     line.UnitPrice.InexactFloat64(),
		Amount:        line.Amount.InexactFloat64(),
		GroupingKey:   string(line.GroupingKey),
		GroupingValue: line.GroupingValue,
	}
	if line.RuleID != nil {
		resp.RuleID = line.RuleID.String()
	}
	for _, id := range line.SourceRecordIDs {
		resp.SourceRecordIDs = append(resp.SourceRecordIDs, id.String())
	}
	return resp
}

func toPreviewResponse(result *billingapp.PreviewResult) PreviewInvoiceResponse {
	lines := make([]PreviewLineResponse, 0, len(result.Lines))
	for _, line := range result.Lines {
		lr := PreviewLineResponse{
			Description:   line.Description,
			Quantity:      line.Quantity.InexactFloat64(),
			Unit:          line.Unit,
			UnitPrice:     line.UnitPrice.InexactFloat64(),
			Amount:        line.Amount.InexactFloat64(),
			GroupingKey:   string(line.GroupingKey),
			GroupingValue: line.GroupingValue,
		}
		if line.RuleID != uuid.Nil {
			lr.RuleID = line.RuleID.String()
		}
		for _, id := range line.SourceRecordIDs {
			lr.SourceRecordIDs = append(lr.SourceRecordIDs, id.String())
		}
		lines = append(lines, lr)
	}

	return PreviewInvoiceResponse{
		ProjectID:   result.ProjectID.String(),
		PeriodMonth: result.PeriodMonth,
		Lines:       lines,
		RecordCount: result.RecordCount,
		Subtotal:    result.Subtotal.InexactFloat64(),
		TaxRate:     result.TaxRate.InexactFloat64(),
		Tax:         result.Tax.InexactFloat64(),
		TotalAmount: result.TotalAmount.InexactFloat64(),
	}
}
