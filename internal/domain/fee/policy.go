package fee

import (
	"slices"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is the actor class supplied by the identity provider
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"  // Platform-wide administrator
	RoleBranchAdmin Role = "branch_admin" // Administrator of a single branch
	RoleParent      Role = "parent"       // Payer for linked students
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleParent:
		return true
	}
	return false
}

// IsAdmin returns true for either administrator class
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleBranchAdmin
}

// Actor is the caller as resolved by the identity provider
type Actor struct {
	ID         uuid.UUID
	Role       Role
	BranchID   uuid.UUID   // Nil for platform administrators
	StudentIDs []uuid.UUID // Students a parent pays for
}

// CanDecide reports whether the actor may approve or reject payments on v.
// Platform administrators act on any voucher, branch administrators only on
// vouchers of their own branch.
func CanDecide(actor Actor, v *FeeVoucher) bool {
	if v == nil || actor.ID == uuid.Nil {
		return false
	}
	switch actor.Role {
	case RoleSuperAdmin:
		return true
	case RoleBranchAdmin:
		return actor.BranchID != uuid.Nil && actor.BranchID == v.BranchID
	}
	return false
}

// CanSubmit reports whether the actor may submit a payment claim on v
func CanSubmit(actor Actor, v *FeeVoucher) bool {
	if v == nil || actor.ID == uuid.Nil {
		return false
	}
	if actor.Role == RoleParent {
		return slices.Contains(actor.StudentIDs, v.StudentID)
	}
	return CanDecide(actor, v)
}

// CanViewBranch reports whether the actor may read a branch's ledger
func CanViewBranch(actor Actor, branchID uuid.UUID) bool {
	switch actor.Role {
	case RoleSuperAdmin:
		return true
	case RoleBranchAdmin:
		return actor.BranchID != uuid.Nil && actor.BranchID == branchID
	}
	return false
}

// CanView reports whether the actor may read v
func CanView(actor Actor, v *FeeVoucher) bool {
	return CanSubmit(actor, v)
}

// AuthorizeDecision returns FORBIDDEN unless CanDecide holds
func AuthorizeDecision(actor Actor, v *FeeVoucher) error {
	if !CanDecide(actor, v) {
		return shared.NewDomainError(shared.CodeForbidden, "Actor is not allowed to decide payments of this branch")
	}
	return nil
}

// AuthorizeSubmission returns FORBIDDEN unless CanSubmit holds
func AuthorizeSubmission(actor Actor, v *FeeVoucher) error {
	if !CanSubmit(actor, v) {
		return shared.NewDomainError(shared.CodeForbidden, "Actor is not allowed to submit payments for this voucher")
	}
	return nil
}
