package ports

import (
	"context"

	"github.com/itroad/users-service/internal/core/domain"
)

// UserFilter narrows a user query. A nil field matches everything; set
// fields are ANDed.
type UserFilter struct {
	Name   *string // case-insensitive substring of the name; never matches an empty name
	Role   *domain.Role
	Status *string
}

// UserRepository defines persistence operations for users. Lookups return
// domain.ErrUserNotFound when no record matches.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// FindAll returns every user in ascending id order.
	FindAll(ctx context.Context) ([]*domain.User, error)
	// FindByFilters returns the users matching filter in ascending id order.
	FindByFilters(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)

	// Save inserts u when u.ID is zero and replaces the stored record
	// otherwise. Unique constraint violations surface as
	// domain.ErrDuplicateUsername, ErrDuplicateEmail or ErrDuplicatePhoneNumber.
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) error
}
