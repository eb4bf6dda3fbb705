package router

import (
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/interfaces/http/handler"
	"github.com/feeledger/backend/internal/interfaces/http/middleware"
)

// EvidenceUploadPath is the multipart payment route, relative to the API base
const EvidenceUploadPath = "/vouchers/:id/payments/upload"

// FeeHandlers are the handlers behind the fee ledger API
type FeeHandlers struct {
	Vouchers *handler.FeeVoucherHandler
	Payments *handler.PaymentHandler
	Reports  *handler.ReportHandler
	System   *handler.SystemHandler
}

// FeeRoutes builds the route groups of the fee ledger API. Branch routes
// carry the branch in the path; voucher routes resolve it from the voucher.
func FeeRoutes(h FeeHandlers) []*DomainGroup {
	admins := middleware.RequireRole(fee.RoleBranchAdmin, fee.RoleSuperAdmin)

	branches := NewDomainGroup("branches", "/branches/:branchId")
	branches.POST("/vouchers", h.Vouchers.Issue).
		GET("/vouchers", h.Vouchers.List).
		GET("/payments", h.Reports.PaymentsByStatus).
		POST("/vouchers/:id/payments/:ref/decision", admins, h.Payments.DecideInBranch)

	vouchers := NewDomainGroup("vouchers", "/vouchers")
	vouchers.GET("/:id", h.Vouchers.GetByID).
		GET("/number/:number", h.Vouchers.GetByNumber).
		POST("/:id/payments", h.Payments.Submit).
		POST("/:id/payments/upload", h.Payments.Upload).
		POST("/:id/cancel", admins, h.Vouchers.Cancel)

	admin := NewDomainGroup("admin", "/admin").Use(middleware.RequireRole(fee.RoleSuperAdmin))
	admin.POST("/vouchers/:id/payments/:ref/decision", h.Payments.Decide).
		POST("/vouchers/overdue-sweep", h.Vouchers.RunOverdueSweep)

	groups := []*DomainGroup{branches, vouchers, admin}
	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo).
			GET("/ping", h.System.Ping)
		groups = append(groups, system)
	}
	return groups
}

// RegisterFeeRoutes adds the fee ledger API to r
func RegisterFeeRoutes(r *Router, h FeeHandlers) []*DomainGroup {
	groups := FeeRoutes(h)
	for _, g := range groups {
		r.Register(g)
	}
	return groups
}
