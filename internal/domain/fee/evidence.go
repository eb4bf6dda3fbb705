package fee

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// EvidenceUpload is a payment proof file on its way to the evidence store
type EvidenceUpload struct {
	VoucherID   uuid.UUID
	BranchID    uuid.UUID
	FileName    string
	ContentType string // As declared by the client, re-detected by the store
	Size        int64
	Body        io.Reader
}

// EvidenceStorage keeps payment proof files outside the ledger.
// The ledger only stores the returned reference.
type EvidenceStorage interface {
	// Store persists the upload and returns where it can be fetched from
	Store(ctx context.Context, upload EvidenceUpload) (Evidence, error)

	// Delete removes a stored proof, used when the payment append fails
	Delete(ctx context.Context, storageKey string) error
}
