package fee

// VoucherStatus represents the status of a fee voucher
type VoucherStatus string

const (
	VoucherStatusPending   VoucherStatus = "pending"   // Issued, nothing approved yet
	VoucherStatusPartial   VoucherStatus = "partial"   // Some approved payments, balance outstanding
	VoucherStatusPaid      VoucherStatus = "paid"      // Fully settled
	VoucherStatusOverdue   VoucherStatus = "overdue"   // Past due date with nothing approved
	VoucherStatusCancelled VoucherStatus = "cancelled" // Cancelled by an administrator, immutable
)

// IsValid checks if the status is a valid VoucherStatus
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusPending, VoucherStatusPartial, VoucherStatusPaid,
		VoucherStatusOverdue, VoucherStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of VoucherStatus
func (s VoucherStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the voucher can no longer change
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusCancelled
}

// CanAcceptPayment returns true if new payment claims may be submitted
func (s VoucherStatus) CanAcceptPayment() bool {
	return s != VoucherStatusCancelled && s != VoucherStatusPaid
}

// CanCancel returns true if the voucher can be cancelled in this status
func (s VoucherStatus) CanCancel() bool {
	return s != VoucherStatusCancelled && s != VoucherStatusPaid
}

// PaymentStatus represents the verification state of a payment entry
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the payment has been decided
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// PaymentMethod represents how the payer says they paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodOnline,
		PaymentMethodCheque, PaymentMethodMobileWallet, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Decision is an approver's verdict on a pending payment
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid checks if the decision is one of approve or reject
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// String returns the string representation of Decision
func (d Decision) String() string {
	return string(d)
}

// TargetStatus returns the payment status the decision leads to
func (d Decision) TargetStatus() PaymentStatus {
	if d == DecisionApprove {
		return PaymentStatusApproved
	}
	return PaymentStatusRejected
}
