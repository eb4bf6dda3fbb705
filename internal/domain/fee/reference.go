package fee

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// uuidLen is the length of a canonical textual UUID
const uuidLen = 36

// ResolvePaymentRef turns an external payment reference into the stable
// payment ID. Accepted forms:
//
//	<payment uuid>            stable identifier
//	<index>                   zero-based position in the payment history
//	<voucher uuid>:<index>    composite form, also with '_' or '-' as separator
//
// Positional forms are lookups only; the returned ID is what callers address.
func (v *FeeVoucher) ResolvePaymentRef(ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, shared.NewDomainError(shared.CodeValidation, "Payment reference is required")
	}

	if len(ref) == uuidLen {
		id, err := uuid.Parse(ref)
		if err != nil {
			return uuid.Nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Malformed payment reference %q", ref))
		}
		if v.FindPayment(id) == nil {
			return uuid.Nil, shared.NewDomainError(shared.CodeNotFound, "Payment entry not found")
		}
		return id, nil
	}

	indexPart := ref
	if len(ref) > uuidLen+1 && strings.ContainsRune(":_-", rune(ref[uuidLen])) {
		voucherID, err := uuid.Parse(ref[:uuidLen])
		if err != nil {
			return uuid.Nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Malformed payment reference %q", ref))
		}
		if voucherID != v.ID {
			return uuid.Nil, shared.NewDomainError(shared.CodeValidation, "Payment reference belongs to a different voucher")
		}
		indexPart = ref[uuidLen+1:]
	}

	index, err := strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return uuid.Nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Malformed payment reference %q", ref))
	}
	if index >= len(v.Payments) {
		return uuid.Nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("No payment entry at position %d", index))
	}
	return v.Payments[index].ID, nil
}
