package ports

import (
	"context"
	"time"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/pkg/patch"
)

// FilterAll is the search sentinel meaning "do not filter on this dimension".
const FilterAll = "all"

// CreateUserInput carries the data for a new account. An empty Role defaults
// to Adherant.
type CreateUserInput struct {
	Username    string
	Password    string
	Role        string
	Name        string
	Email       string
	Address     string
	Bio         string
	PhoneNumber string
}

// UpdateUserInput is a partial update: absent fields leave the stored value
// untouched, present ones are applied even when empty.
type UpdateUserInput struct {
	Name        patch.Field[string]
	Email       patch.Field[string]
	Bio         patch.Field[string]
	Address     patch.Field[string]
	PhoneNumber patch.Field[string]
	Avatar      patch.Field[string]
	Role        patch.Field[domain.Role]
	Status      patch.Field[string]
}

// SearchUsersInput holds raw search parameters; FilterAll disables a dimension.
type SearchUsersInput struct {
	Name   string
	Role   string
	Status string
}

// UserView is the outward projection of a user. It has no password field.
type UserView struct {
	ID          int64
	Username    string
	Name        string
	Email       string
	Address     string
	PhoneNumber string
	Bio         string
	Role        string
	Status      string
	LastLogin   *time.Time
	Avatar      string
}

// UserStats summarizes the user base.
type UserStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	AdherantUsers int64
	AdminUsers    int64
}

// UserService defines the user-management use cases.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]UserView, error)
	GetUserByID(ctx context.Context, id int64) (*UserView, error)
	GetUserByUsername(ctx context.Context, username string) (*UserView, error)
	GetUsersByFilters(ctx context.Context, in SearchUsersInput) ([]UserView, error)
	GetUserStats(ctx context.Context) (*UserStats, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*UserView, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*UserView, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64) (*UserView, error)
}
