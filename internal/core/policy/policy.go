// Package policy decides whether an authenticated identity may perform an
// action on the user resource.
//
// Authorization rules:
//   - ListUsers, SearchUsers: Admin or Adherant
//   - ReadUser, UpdateUser: Admin, or the identity's own record (Adherant or Admin)
//   - UpdateLastLogin: Admin, or the identity's own record
//   - CreateUser, DeleteUser, ChangeRole, ViewStats: Admin only
//   - ReadSelf: any authenticated identity
//
// A role change submitted by a non-Admin through an update is not rejected:
// StripForbiddenFields drops it and the rest of the update proceeds.
package policy

import (
	"fmt"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/pkg/patch"
)

// Action identifies a guarded operation.
type Action string

const (
	ActionListUsers       Action = "list_users"
	ActionSearchUsers     Action = "search_users"
	ActionReadUser        Action = "read_user"
	ActionUpdateUser      Action = "update_user"
	ActionUpdateLastLogin Action = "update_last_login"
	ActionCreateUser      Action = "create_user"
	ActionDeleteUser      Action = "delete_user"
	ActionChangeRole      Action = "change_role"
	ActionReadSelf        Action = "read_self"
	ActionViewStats       Action = "view_stats"
)

// NeedsTarget reports whether the action is evaluated against a target user id.
func (a Action) NeedsTarget() bool {
	switch a {
	case ActionReadUser, ActionUpdateUser, ActionUpdateLastLogin:
		return true
	default:
		return false
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil for an allowed decision and an error wrapping
// domain.ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize evaluates action for id. targetID is the id of the user record
// the action applies to and is ignored by actions that have none.
func Authorize(id domain.Identity, action Action, targetID int64) Decision {
	self := targetID != 0 && id.UserID == targetID

	switch action {
	case ActionReadSelf:
		return allow()

	case ActionListUsers, ActionSearchUsers:
		if isMember(id.Role) {
			return allow()
		}
		return deny("role " + string(id.Role) + " cannot list users")

	case ActionReadUser, ActionUpdateUser:
		switch id.Role {
		case domain.RoleAdmin:
			return allow()
		case domain.RoleAdherant:
			if self {
				return allow()
			}
			return deny("only the account owner or an admin can access this user")
		default:
			return deny("unknown role")
		}

	case ActionUpdateLastLogin:
		if id.Role == domain.RoleAdmin || self {
			return allow()
		}
		return deny("only the account owner or an admin can update the last login")

	case ActionCreateUser, ActionDeleteUser, ActionChangeRole, ActionViewStats:
		if id.Role == domain.RoleAdmin {
			return allow()
		}
		return deny("admin role required")

	default:
		return deny("unknown action " + string(action))
	}
}

// StripForbiddenFields removes the parts of an update id is not allowed to
// make and reports whether anything was removed.
func StripForbiddenFields(id domain.Identity, in *ports.UpdateUserInput) bool {
	if in.Role.IsSet() && !Authorize(id, ActionChangeRole, 0).Allowed {
		in.Role = patch.Field[domain.Role]{}
		return true
	}
	return false
}

func isMember(r domain.Role) bool {
	switch r {
	case domain.RoleAdmin, domain.RoleAdherant:
		return true
	default:
		return false
	}
}
