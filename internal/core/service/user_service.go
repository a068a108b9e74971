package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/pkg/metrics"
	"github.com/itroad/users-service/internal/pkg/patch"
)

type UserService struct {
	repo   ports.UserRepository
	cache  ports.IdentityCache
	logger zerolog.Logger
	cost   int
	now    func() time.Time
}

// NewUserService builds a UserService. cache may be nil; when set, identities
// are invalidated after every write to the user they describe.
func NewUserService(repo ports.UserRepository, cache ports.IdentityCache, logger zerolog.Logger) *UserService {
	if cache == nil {
		cache = noopCache{}
	}
	return &UserService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]ports.UserView, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return toViews(users), nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*ports.UserView, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := toView(u)
	return &v, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*ports.UserView, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	v := toView(u)
	return &v, nil
}

// GetUsersByFilters ANDs every dimension that is not FilterAll. A role that
// names no known role matches nobody.
func (s *UserService) GetUsersByFilters(ctx context.Context, in ports.SearchUsersInput) ([]ports.UserView, error) {
	var f ports.UserFilter
	if name, ok := filterValue(in.Name); ok {
		f.Name = &name
	}
	if raw, ok := filterValue(in.Role); ok {
		role, valid := domain.ParseRole(raw)
		if !valid {
			return []ports.UserView{}, nil
		}
		f.Role = &role
	}
	if status, ok := filterValue(in.Status); ok {
		f.Status = &status
	}

	users, err := s.repo.FindByFilters(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return toViews(users), nil
}

func (s *UserService) GetUserStats(ctx context.Context) (*ports.UserStats, error) {
	active := domain.StatusActive
	adherant := domain.RoleAdherant
	admin := domain.RoleAdmin

	var stats ports.UserStats
	counts := []struct {
		dst    *int64
		filter ports.UserFilter
	}{
		{&stats.TotalUsers, ports.UserFilter{}},
		{&stats.ActiveUsers, ports.UserFilter{Status: &active}},
		{&stats.AdherantUsers, ports.UserFilter{Role: &adherant}},
		{&stats.AdminUsers, ports.UserFilter{Role: &admin}},
	}
	for _, c := range counts {
		n, err := s.repo.Count(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("counting users: %w", err)
		}
		*c.dst = n
	}
	return &stats, nil
}

// CreateUser stores a new Active account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*ports.UserView, error) {
	role := domain.RoleAdherant
	if strings.TrimSpace(in.Role) != "" {
		parsed, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, domain.NewValidationError("role", "must be one of Admin, Adherant")
		}
		role = parsed
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if email != "" {
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if taken {
			return nil, domain.ErrDuplicateEmail
		}
	}
	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	today := domain.Today(s.now())
	u := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		Bio:          strings.TrimSpace(in.Bio),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Status:       domain.StatusActive,
		LastLogin:    &today,
	}

	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}

	metrics.UserMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info().Int64("user_id", saved.ID).Str("username", saved.Username).Str("role", saved.Role.String()).Msg("user created")

	v := toView(saved)
	return &v, nil
}

// UpdateUser applies the present fields of in. A changed email must not
// belong to another user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*ports.UserView, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email, ok := patch.Map(in.Email, strings.TrimSpace).Get(); ok {
		if email != "" && email != u.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("checking email: %w", err)
			}
			if taken {
				return nil, domain.ErrDuplicateEmail
			}
		}
		u.Email = email
	}

	patch.Map(in.Name, strings.TrimSpace).Apply(&u.Name)
	patch.Map(in.Bio, strings.TrimSpace).Apply(&u.Bio)
	patch.Map(in.Address, strings.TrimSpace).Apply(&u.Address)
	patch.Map(in.PhoneNumber, strings.TrimSpace).Apply(&u.PhoneNumber)
	patch.Map(in.Avatar, strings.TrimSpace).Apply(&u.Avatar)

	if role, ok := in.Role.Get(); ok {
		if !role.IsValid() {
			return nil, domain.NewValidationError("role", "must be one of Admin, Adherant")
		}
		if role != u.Role {
			s.logger.Info().Int64("user_id", u.ID).Str("from", u.Role.String()).Str("to", role.String()).Msg("role changed")
		}
		u.Role = role
	}
	in.Status.Apply(&u.Status)

	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, saved.Username)

	metrics.UserMutationsTotal.WithLabelValues("update").Inc()
	s.logger.Info().Int64("user_id", saved.ID).Msg("user updated")

	v := toView(saved)
	return &v, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, u.Username)

	metrics.UserMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Int64("user_id", id).Str("username", u.Username).Msg("user deleted")
	return nil
}

// UpdateLastLogin stamps today's date on the user.
func (s *UserService) UpdateLastLogin(ctx context.Context, id int64) (*ports.UserView, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	today := domain.Today(s.now())
	u.LastLogin = &today

	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}

	metrics.UserMutationsTotal.WithLabelValues("last_login").Inc()
	v := toView(saved)
	return &v, nil
}

func (s *UserService) invalidate(ctx context.Context, username string) {
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("identity cache invalidation failed")
	}
}

// filterValue reports whether raw constrains a search dimension. Only the
// exact sentinel disables it; an empty string is a filter like any other.
func filterValue(raw string) (string, bool) {
	return raw, raw != ports.FilterAll
}

func toView(u *domain.User) ports.UserView {
	return ports.UserView{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		Bio:         u.Bio,
		Role:        u.Role.String(),
		Status:      u.Status,
		LastLogin:   u.LastLogin,
		Avatar:      u.Avatar,
	}
}

func toViews(users []*domain.User) []ports.UserView {
	out := make([]ports.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toView(u))
	}
	return out
}
