package handler

import (
	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles branch reporting endpoints
type ReportHandler struct {
	BaseHandler
	reportingService *feeapp.ReportingService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportingService *feeapp.ReportingService) *ReportHandler {
	return &ReportHandler{reportingService: reportingService}
}

// PaymentsByStatus godoc
// @ID           listPaymentsByStatus
// @Summary      Payments of a branch grouped by status
// @Description  Each bucket is sorted most recent first: pending by submission, decided ones by decision time
// @Tags         reports
// @Produce      json
// @Param        branchId path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[feeapp.PaymentsByStatus]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{branchId}/payments [get]
func (h *ReportHandler) PaymentsByStatus(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	branchID, ok := h.uuidParam(c, "branchId")
	if !ok {
		return
	}

	report, err := h.reportingService.ListPaymentsByStatus(c.Request.Context(), branchID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
