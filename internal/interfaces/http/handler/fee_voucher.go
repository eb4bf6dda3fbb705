package handler

import (
	"context"
	"time"

	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverdueRunner runs one overdue sweep on demand
type OverdueRunner interface {
	Run(ctx context.Context, asOf time.Time) (*feeapp.OverdueSweepResult, error)
}

// FeeVoucherHandler handles fee voucher API endpoints
type FeeVoucherHandler struct {
	BaseHandler
	voucherService *feeapp.VoucherService
	overdue        OverdueRunner
}

// NewFeeVoucherHandler creates a new FeeVoucherHandler
func NewFeeVoucherHandler(voucherService *feeapp.VoucherService, overdue OverdueRunner) *FeeVoucherHandler {
	return &FeeVoucherHandler{
		voucherService: voucherService,
		overdue:        overdue,
	}
}

// IssueVoucherRequest represents a voucher handed over by billing generation
// @Description Request body for issuing a fee voucher
type IssueVoucherRequest struct {
	StudentID      string           `json:"student_id" binding:"required,uuid" example:"5f0c6b9e-8d7a-4f3e-9a1b-2c3d4e5f6a7b"`
	StudentName    string           `json:"student_name" binding:"required,min=1,max=200" example:"Ayesha Khan"`
	ClassID        string           `json:"class_id" binding:"omitempty,uuid" example:"9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"`
	ClassName      string           `json:"class_name" binding:"max=100" example:"Grade 5-B"`
	TemplateID     string           `json:"template_id" binding:"omitempty,uuid" example:"1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e"`
	Month          int              `json:"month" binding:"required,min=1,max=12" example:"9"`
	Year           int              `json:"year" binding:"required,min=2000,max=2100" example:"2026"`
	Amount         decimal.Decimal  `json:"amount" binding:"required,gt=0" swaggertype:"number" example:"12000"`
	LateFeeAmount  *decimal.Decimal `json:"late_fee_amount" binding:"omitempty,gte=0" swaggertype:"number" example:"500"`
	DiscountAmount *decimal.Decimal `json:"discount_amount" binding:"omitempty,gte=0" swaggertype:"number" example:"1000"`
	DueDate        time.Time        `json:"due_date" binding:"required" example:"2026-09-10T00:00:00Z"`
}

// CancelVoucherRequest represents a request to cancel a voucher
// @Description Request body for cancelling a voucher
type CancelVoucherRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Student withdrew"`
}

// ListVouchersQuery are the listing filters
type ListVouchersQuery struct {
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pending partial paid overdue cancelled"`
	Month     int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year      int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OverdueSweepQuery optionally back-dates a manual sweep
type OverdueSweepQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// Issue godoc
// @ID           issueFeeVoucher
// @Summary      Issue a fee voucher
// @Description  Record a voucher produced by billing generation. One live voucher per student and period.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        branchId path string true "Branch ID" format(uuid)
// @Param        request body IssueVoucherRequest true "Voucher"
// @Success      201 {object} APIResponse[feeapp.VoucherResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{branchId}/vouchers [post]
func (h *FeeVoucherHandler) Issue(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	branchID, ok := h.uuidParam(c, "branchId")
	if !ok {
		return
	}

	var req IssueVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.voucherService.IssueVoucher(c.Request.Context(), branchID, feeapp.IssueVoucherRequest{
		StudentID:      uuid.MustParse(req.StudentID),
		StudentName:    req.StudentName,
		ClassID:        parseOptionalUUID(req.ClassID),
		ClassName:      req.ClassName,
		TemplateID:     parseOptionalUUID(req.TemplateID),
		Month:          req.Month,
		Year:           req.Year,
		Amount:         req.Amount,
		LateFeeAmount:  req.LateFeeAmount,
		DiscountAmount: req.DiscountAmount,
		DueDate:        req.DueDate,
	}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listFeeVouchers
// @Summary      List a branch's vouchers
// @Description  Vouchers without payment history, newest period first
// @Tags         vouchers
// @Produce      json
// @Param        branchId path string true "Branch ID" format(uuid)
// @Param        student_id query string false "Student ID" format(uuid)
// @Param        status query string false "Voucher status" Enums(pending, partial, paid, overdue, cancelled)
// @Param        month query int false "Billing month"
// @Param        year query int false "Billing year"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        sort_by query string false "Sort field" Enums(period, voucher_number, student_name, class_name, due_date, total_amount, paid_amount, remaining_amount, status, created_at, updated_at)
// @Param        sort_order query string false "Sort direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]feeapp.VoucherSummary]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{branchId}/vouchers [get]
func (h *FeeVoucherHandler) List(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	branchID, ok := h.uuidParam(c, "branchId")
	if !ok {
		return
	}

	var q ListVouchersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := feeapp.VoucherListFilter{
		Month:    q.Month,
		Year:     q.Year,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.StudentID != "" {
		id := uuid.MustParse(q.StudentID)
		filter.StudentID = &id
	}
	if q.Status != "" {
		status := fee.VoucherStatus(q.Status)
		filter.Status = &status
	}

	page, err := h.voucherService.ListVouchers(c.Request.Context(), branchID, filter, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// GetByID godoc
// @ID           getFeeVoucher
// @Summary      Get a voucher
// @Description  A voucher with its full payment history. Vouchers outside the caller's scope report 404.
// @Tags         vouchers
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Success      200 {object} APIResponse[feeapp.VoucherResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{id} [get]
func (h *FeeVoucherHandler) GetByID(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.voucherService.GetVoucher(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber godoc
// @ID           getFeeVoucherByNumber
// @Summary      Get a voucher by number
// @Tags         vouchers
// @Produce      json
// @Param        number path string true "Voucher number" example(FV-202609-000042)
// @Success      200 {object} APIResponse[feeapp.VoucherResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/number/{number} [get]
func (h *FeeVoucherHandler) GetByNumber(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	resp, err := h.voucherService.GetVoucherByNumber(c.Request.Context(), c.Param("number"), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelFeeVoucher
// @Summary      Cancel a voucher
// @Description  Only vouchers that are not yet paid can be cancelled. Cancellation is final.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        request body CancelVoucherRequest true "Cancellation"
// @Success      200 {object} APIResponse[feeapp.VoucherResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{id}/cancel [post]
func (h *FeeVoucherHandler) Cancel(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req CancelVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.voucherService.CancelVoucher(c.Request.Context(), id, feeapp.CancelVoucherRequest{Reason: req.Reason}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RunOverdueSweep godoc
// @ID           runOverdueSweep
// @Summary      Run the overdue sweep
// @Description  Flags pending, unpaid vouchers due before as_of (default now) as overdue
// @Tags         admin
// @Produce      json
// @Param        as_of query string false "Sweep time, RFC 3339"
// @Success      200 {object} APIResponse[feeapp.OverdueSweepResult]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/vouchers/overdue-sweep [post]
func (h *FeeVoucherHandler) RunOverdueSweep(c *gin.Context) {
	var q OverdueSweepQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	asOf := time.Now().UTC()
	if q.AsOf != "" {
		asOf, _ = time.Parse(time.RFC3339, q.AsOf)
	}

	result, err := h.overdue.Run(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// parseOptionalUUID parses a validated, possibly empty uuid
func parseOptionalUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	return uuid.MustParse(s)
}
