package fee

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memoryRepository is an in-memory FeeVoucherRepository with the same
// conditional-write semantics as the GORM store: decisions require the
// payment row to be pending and the voucher version to match.
type memoryRepository struct {
	mu       sync.Mutex
	vouchers map[uuid.UUID]*fee.FeeVoucher
	numbers  map[string]uuid.UUID
	seq      int

	// beforeDecision runs inside SaveDecision ahead of the checks, with the
	// lock held, so tests can change the stored voucher underneath a write
	beforeDecision func(stored *fee.FeeVoucher)
	decisionWrites int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		vouchers: make(map[uuid.UUID]*fee.FeeVoucher),
		numbers:  make(map[string]uuid.UUID),
	}
}

func cloneVoucher(v *fee.FeeVoucher) *fee.FeeVoucher {
	c := *v
	c.Payments = slices.Clone(v.Payments)
	c.ClearDomainEvents()
	return &c
}

func (r *memoryRepository) put(v *fee.FeeVoucher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers[v.ID] = cloneVoucher(v)
	r.numbers[v.VoucherNumber] = v.ID
}

func (r *memoryRepository) stored(id uuid.UUID) *fee.FeeVoucher {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneVoucher(r.vouchers[id])
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*fee.FeeVoucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return nil, nil
	}
	return cloneVoucher(v), nil
}

func (r *memoryRepository) FindByVoucherNumber(ctx context.Context, number string) (*fee.FeeVoucher, error) {
	r.mu.Lock()
	id, ok := r.numbers[number]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *memoryRepository) FindAll(_ context.Context, filter fee.VoucherFilter) ([]fee.FeeVoucher, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fee.FeeVoucher
	for _, v := range r.vouchers {
		if filter.BranchID != nil && v.BranchID != *filter.BranchID {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		if filter.StudentID != nil && v.StudentID != *filter.StudentID {
			continue
		}
		c := cloneVoucher(v)
		c.Payments = nil
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b fee.FeeVoucher) int { return b.CreatedAt.Compare(a.CreatedAt) })
	total := int64(len(out))
	start := min(filter.Offset(), len(out))
	end := min(start+filter.PageSize, len(out))
	return out[start:end], total, nil
}

func (r *memoryRepository) FindByBranchWithPayments(_ context.Context, branchID uuid.UUID) ([]fee.FeeVoucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fee.FeeVoucher
	for _, v := range r.vouchers {
		if v.BranchID == branchID {
			out = append(out, *cloneVoucher(v))
		}
	}
	return out, nil
}

func (r *memoryRepository) FindOverdueCandidates(_ context.Context, asOf time.Time, limit int) ([]fee.FeeVoucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fee.FeeVoucher
	for _, v := range r.vouchers {
		if v.Status == fee.VoucherStatusPending && v.DueDate.Before(asOf) {
			out = append(out, *cloneVoucher(v))
		}
	}
	slices.SortFunc(out, func(a, b fee.FeeVoucher) int { return a.DueDate.Compare(b.DueDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) ExistsForPeriod(_ context.Context, studentID, branchID uuid.UUID, month, year int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.StudentID == studentID && v.BranchID == branchID && v.Month == month && v.Year == year &&
			v.Status != fee.VoucherStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) Create(_ context.Context, v *fee.FeeVoucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.numbers[v.VoucherNumber]; taken {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Voucher number already exists")
	}
	r.vouchers[v.ID] = cloneVoucher(v)
	r.numbers[v.VoucherNumber] = v.ID
	return nil
}

func (r *memoryRepository) AppendPayment(_ context.Context, v *fee.FeeVoucher, p *fee.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vouchers[v.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if !stored.Status.CanAcceptPayment() {
		return fee.ErrVoucherNotSubmittable
	}
	if stored.FindPayment(p.ID) != nil {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Payment entry already exists")
	}
	stored.Payments = append(stored.Payments, *p)
	return nil
}

func (r *memoryRepository) SaveDecision(_ context.Context, v *fee.FeeVoucher, p *fee.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisionWrites++
	stored, ok := r.vouchers[v.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if r.beforeDecision != nil {
		r.beforeDecision(stored)
	}
	current := stored.FindPayment(p.ID)
	if current == nil || !current.IsPending() {
		return fee.ErrPaymentNoLongerPending
	}
	if stored.Version != v.Version {
		return fee.ErrStaleVoucher
	}
	c := cloneVoucher(v)
	c.Version++
	r.vouchers[v.ID] = c
	v.IncrementVersion()
	return nil
}

func (r *memoryRepository) SaveWithLock(_ context.Context, v *fee.FeeVoucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vouchers[v.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != v.Version {
		return fee.ErrStaleVoucher
	}
	c := cloneVoucher(v)
	c.Payments = stored.Payments
	c.Version++
	r.vouchers[v.ID] = c
	v.IncrementVersion()
	return nil
}

func (r *memoryRepository) GenerateVoucherNumber(_ context.Context, year, month int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("FV-%04d%02d-%06d", year, month, r.seq), nil
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// recordingPublisher keeps every published event type
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.types)
}
