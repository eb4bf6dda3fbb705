package handler

import (
	"net/http"
	"strings"
	"time"

	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Header names used by payment submission
const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLength = 255
	evidenceFormField       = "file"
)

// PaymentHandler handles payment submission and approval endpoints
type PaymentHandler struct {
	BaseHandler
	submissionService *feeapp.SubmissionService
	approvalEngine    *feeapp.ApprovalEngine
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(submissionService *feeapp.SubmissionService, approvalEngine *feeapp.ApprovalEngine) *PaymentHandler {
	return &PaymentHandler{
		submissionService: submissionService,
		approvalEngine:    approvalEngine,
	}
}

// EvidenceRef points at a proof file that is already stored
// @Description Reference to an uploaded payment proof
type EvidenceRef struct {
	URL        string `json:"url" binding:"required,url,max=2048" example:"https://evidence.example.com/branch/voucher/proof.jpg"`
	StorageKey string `json:"storage_key" binding:"max=512" example:"evidence/branch/voucher/20260901-proof.jpg"`
}

// SubmitPaymentRequest represents a payer's payment claim
// @Description Request body for submitting a payment with an already stored proof
type SubmitPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"number" example:"6000"`
	PaymentMethod string          `json:"payment_method" binding:"required,oneof=cash bank_transfer online cheque mobile_wallet other" example:"bank_transfer"`
	Screenshot    EvidenceRef     `json:"screenshot" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"max=100" example:"TXN-884120"`
	Remarks       string          `json:"remarks" binding:"max=500" example:"First installment"`
	PaymentDate   *time.Time      `json:"payment_date" example:"2026-09-03T10:15:00Z"`
}

// UploadPaymentForm is the multipart form of a payment claim. The proof
// file travels in the "file" part.
type UploadPaymentForm struct {
	Amount        string `form:"amount" binding:"required,numeric"`
	PaymentMethod string `form:"payment_method" binding:"required,oneof=cash bank_transfer online cheque mobile_wallet other"`
	TransactionID string `form:"transaction_id" binding:"max=100"`
	Remarks       string `form:"remarks" binding:"max=500"`
	PaymentDate   string `form:"payment_date" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// DecidePaymentRequest represents an approval or rejection
// @Description Request body for deciding a pending payment
type DecidePaymentRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject" example:"approve"`
	Remarks  string `json:"remarks" binding:"max=500" example:"Matched bank statement"`
}

// Submit godoc
// @ID           submitPayment
// @Summary      Submit a payment claim
// @Description  Append a pending payment whose proof is already stored. Repeating a request with the same Idempotency-Key returns the original payment.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        Idempotency-Key header string false "Client key for safe retries"
// @Param        request body SubmitPaymentRequest true "Payment claim"
// @Success      201 {object} APIResponse[feeapp.PaymentRefResponse]
// @Success      200 {object} APIResponse[feeapp.PaymentRefResponse] "Replayed submission"
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{id}/payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	voucherID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	idemKey, ok := h.idempotencyKey(c)
	if !ok {
		return
	}

	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.submissionService.SubmitPayment(c.Request.Context(), feeapp.SubmitPaymentRequest{
		VoucherID:      voucherID,
		Amount:         req.Amount,
		Method:         fee.PaymentMethod(req.PaymentMethod),
		Evidence:       fee.Evidence{URL: req.Screenshot.URL, StorageKey: req.Screenshot.StorageKey},
		TransactionID:  req.TransactionID,
		Remarks:        req.Remarks,
		PaymentDate:    req.PaymentDate,
		IdempotencyKey: idemKey,
	}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.submitted(c, resp)
}

// Upload godoc
// @ID           uploadPayment
// @Summary      Submit a payment claim with its proof file
// @Description  The proof (JPEG, PNG, WebP or PDF) is stored first; it is removed again if the payment cannot be recorded.
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        Idempotency-Key header string false "Client key for safe retries"
// @Param        file formData file true "Payment proof"
// @Param        amount formData number true "Amount paid"
// @Param        payment_method formData string true "Payment method" Enums(cash, bank_transfer, online, cheque, mobile_wallet, other)
// @Param        transaction_id formData string false "Bank or wallet reference"
// @Param        remarks formData string false "Remarks"
// @Param        payment_date formData string false "Payment date, RFC 3339"
// @Success      201 {object} APIResponse[feeapp.PaymentRefResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vouchers/{id}/payments/upload [post]
func (h *PaymentHandler) Upload(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	voucherID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	idemKey, ok := h.idempotencyKey(c)
	if !ok {
		return
	}

	var form UploadPaymentForm
	if err := c.ShouldBind(&form); err != nil {
		h.BindError(c, err)
		return
	}
	amount, err := decimal.NewFromString(form.Amount)
	if err != nil || !amount.IsPositive() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Amount must be greater than 0")
		return
	}
	var paymentDate *time.Time
	if form.PaymentDate != "" {
		d, _ := time.Parse(time.RFC3339, form.PaymentDate)
		paymentDate = &d
	}

	fileHeader, err := c.FormFile(evidenceFormField)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationRequired, "Payment proof file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Payment proof file could not be read")
		return
	}
	defer file.Close()

	resp, err := h.submissionService.SubmitPaymentWithUpload(c.Request.Context(), feeapp.SubmitPaymentRequest{
		VoucherID:      voucherID,
		Amount:         amount,
		Method:         fee.PaymentMethod(form.PaymentMethod),
		TransactionID:  form.TransactionID,
		Remarks:        form.Remarks,
		PaymentDate:    paymentDate,
		IdempotencyKey: idemKey,
	}, fee.EvidenceUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.submitted(c, resp)
}

// DecideInBranch godoc
// @ID           decidePaymentInBranch
// @Summary      Approve or reject a payment (branch)
// @Description  The payment reference may be the payment id, its history index or voucherId:index. A payment that was already decided answers 200 with outcome ALREADY_DECIDED and the winning decision.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        branchId path string true "Branch ID" format(uuid)
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        ref path string true "Payment reference"
// @Param        request body DecidePaymentRequest true "Decision"
// @Success      200 {object} APIResponse[feeapp.DecisionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{branchId}/vouchers/{id}/payments/{ref}/decision [post]
func (h *PaymentHandler) DecideInBranch(c *gin.Context) {
	branchID, ok := h.uuidParam(c, "branchId")
	if !ok {
		return
	}
	h.decide(c, &branchID)
}

// Decide godoc
// @ID           decidePayment
// @Summary      Approve or reject a payment (platform)
// @Description  Platform administrators decide payments of any branch.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Voucher ID" format(uuid)
// @Param        ref path string true "Payment reference"
// @Param        request body DecidePaymentRequest true "Decision"
// @Success      200 {object} APIResponse[feeapp.DecisionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/vouchers/{id}/payments/{ref}/decision [post]
func (h *PaymentHandler) Decide(c *gin.Context) {
	h.decide(c, nil)
}

func (h *PaymentHandler) decide(c *gin.Context, branchID *uuid.UUID) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	voucherID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req DecidePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.approvalEngine.DecidePayment(c.Request.Context(), feeapp.DecidePaymentRequest{
		VoucherID:  voucherID,
		BranchID:   branchID,
		PaymentRef: c.Param("ref"),
		Decision:   fee.Decision(req.Decision),
		Remarks:    req.Remarks,
	}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// idempotencyKey reads the optional Idempotency-Key header
func (h *PaymentHandler) idempotencyKey(c *gin.Context) (string, bool) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationLength, "Idempotency-Key must be at most 255 characters")
		return "", false
	}
	return key, true
}

// submitted answers 201 for a new payment and 200 for a replay
func (h *PaymentHandler) submitted(c *gin.Context, resp *feeapp.PaymentRefResponse) {
	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}
