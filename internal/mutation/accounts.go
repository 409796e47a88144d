package mutation

import (
	"context"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
)

// AccountBackend changes user accounts on behalf of an administrator.
type AccountBackend interface {
	UpdateUserTier(ctx context.Context, id string, tier model.Tier) (model.User, error)
}

// Accounts runs administrator changes to user accounts one at a time.
// Tier changes move users between the counts in the admin statistics as
// well as changing list rows, so both caches are registered here.
type Accounts struct {
	backend AccountBackend
	coord   *Coordinator
}

// NewAccounts creates an account coordinator that invalidates caches after
// each success.
func NewAccounts(backend AccountBackend, caches ...Invalidator) *Accounts {
	return &Accounts{backend: backend, coord: &Coordinator{caches: caches}}
}

// Register adds a cache to invalidate after each success.
func (a *Accounts) Register(cache Invalidator) {
	a.coord.Register(cache)
}

// SetTier moves the user with id to tier.
func (a *Accounts) SetTier(ctx context.Context, id string, tier model.Tier) (model.User, error) {
	if id == "" {
		return model.User{}, common.ErrNoSelection
	}
	if err := model.Validate(model.UserTierUpdate{Tier: tier}); err != nil {
		return model.User{}, err
	}
	return run(ctx, a.coord, "set tier", func(ctx context.Context) (model.User, error) {
		return a.backend.UpdateUserTier(ctx, id, tier)
	})
}
