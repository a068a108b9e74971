package ports

import (
	"context"

	"github.com/itroad/users-service/internal/core/domain"
)

// IdentityCache memoizes username -> identity resolution for the auth gate.
//
// Each username carries a generation that Invalidate advances. A reader takes
// the generation before loading the user from the store and hands it back to
// Set, which drops the write when an invalidation happened in between.
type IdentityCache interface {
	Get(ctx context.Context, username string) (*domain.Identity, bool, error)
	Generation(ctx context.Context, username string) (uint64, error)
	Set(ctx context.Context, identity domain.Identity, generation uint64) error
	Invalidate(ctx context.Context, username string) error
}
