// Package mutation runs create, update, delete and bulk operations one at a
// time and invalidates cached list results after each success.
package mutation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
)

// Phase is where the coordinator is in the lifecycle of a mutation.
type Phase int

// Mutation phases. Only PhasePending blocks a new mutation.
const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Backend performs the mutations against the API.
type Backend interface {
	Create(ctx context.Context, c model.OrderCreate) (model.Order, error)
	Update(ctx context.Context, id string, u model.OrderUpdate) (model.Order, error)
	Delete(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, ids []string, u model.OrderUpdate) (model.BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) (model.BulkResult, error)
	Import(ctx context.Context, filename string, r io.Reader) (model.ImportResult, error)
}

// Invalidator is a cache that can be dropped wholesale.
type Invalidator interface {
	Invalidate()
}

// Coordinator serializes mutations on one resource. After any successful
// mutation every registered cache is invalidated so views fetch fresh rows;
// cached pages carry server-computed totals that cannot be patched locally.
type Coordinator struct {
	backend Backend
	caches  []Invalidator
	phase   Phase
	mu      sync.Mutex
}

// New creates a coordinator that invalidates caches after each success.
func New(backend Backend, caches ...Invalidator) *Coordinator {
	return &Coordinator{backend: backend, caches: caches}
}

// Register adds a cache to invalidate after each success.
func (c *Coordinator) Register(cache Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caches = append(c.caches, cache)
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Dismiss acknowledges a finished mutation and returns to idle.
// It does nothing while a mutation is pending.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhasePending {
		return
	}
	c.phase = PhaseIdle
}

// Create validates and creates a record.
func (c *Coordinator) Create(ctx context.Context, in model.OrderCreate) (model.Order, error) {
	if err := model.ValidateCreate(in); err != nil {
		return model.Order{}, err
	}
	return run(ctx, c, "create", func(ctx context.Context) (model.Order, error) {
		return c.backend.Create(ctx, in)
	})
}

// Update validates u against current and applies it.
func (c *Coordinator) Update(ctx context.Context, current model.Order, u model.OrderUpdate) (model.Order, error) {
	if err := model.ValidateUpdate(current, u); err != nil {
		return model.Order{}, err
	}
	return run(ctx, c, "update", func(ctx context.Context) (model.Order, error) {
		return c.backend.Update(ctx, current.ID, u)
	})
}

// Delete removes one record.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrNoSelection
	}
	_, err := run(ctx, c, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.backend.Delete(ctx, id)
	})
	return err
}

// BulkUpdate applies u to every id. Items that fail on the server are listed
// in the result; the call still succeeds and still invalidates.
func (c *Coordinator) BulkUpdate(ctx context.Context, ids []string, u model.OrderUpdate) (model.BulkResult, error) {
	if len(ids) == 0 {
		return model.BulkResult{}, common.ErrNoSelection
	}
	if err := model.ValidateBulkUpdate(u); err != nil {
		return model.BulkResult{}, err
	}
	return run(ctx, c, string(model.BulkUpdateOp), func(ctx context.Context) (model.BulkResult, error) {
		res, err := c.backend.BulkUpdate(ctx, ids, u)
		res.Op = model.BulkUpdateOp
		return res, err
	})
}

// BulkDelete removes every id, reporting per-item failures like BulkUpdate.
func (c *Coordinator) BulkDelete(ctx context.Context, ids []string) (model.BulkResult, error) {
	if len(ids) == 0 {
		return model.BulkResult{}, common.ErrNoSelection
	}
	return run(ctx, c, string(model.BulkDeleteOp), func(ctx context.Context) (model.BulkResult, error) {
		res, err := c.backend.BulkDelete(ctx, ids)
		res.Op = model.BulkDeleteOp
		return res, err
	})
}

// Import uploads a CSV file of records.
func (c *Coordinator) Import(ctx context.Context, filename string, r io.Reader) (model.ImportResult, error) {
	return run(ctx, c, "import", func(ctx context.Context) (model.ImportResult, error) {
		return c.backend.Import(ctx, filename, r)
	})
}

func (c *Coordinator) begin(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhasePending {
		return fmt.Errorf("%s: %w", op, common.ErrMutationPending)
	}
	c.phase = PhasePending
	return nil
}

func (c *Coordinator) finish(op string, err error) {
	c.mu.Lock()
	if err != nil {
		c.phase = PhaseError
		c.mu.Unlock()
		common.LogError(err, "Mutation failed", common.Fields{"op": op})
		return
	}
	c.phase = PhaseSuccess
	caches := append([]Invalidator(nil), c.caches...)
	c.mu.Unlock()

	for _, cache := range caches {
		cache.Invalidate()
	}
	slog.Info("Mutation succeeded", "op", op, "invalidated", len(caches))
}

func run[T any](ctx context.Context, c *Coordinator, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := c.begin(op); err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	c.finish(op, err)
	if err != nil {
		return zero, err
	}
	return v, nil
}
