package handler

import (
	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/pkg/patch"
)

const dateLayout = "2006-01-02"

// --- Request → Service input ---

func toCreateInput(req createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
	}
}

// toUpdateInput assumes req has been validated, so a present role parses.
func toUpdateInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Name:        patch.FromPtr(req.Name),
		Email:       patch.FromPtr(req.Email),
		Bio:         patch.FromPtr(req.Bio),
		Address:     patch.FromPtr(req.Address),
		PhoneNumber: patch.FromPtr(req.PhoneNumber),
		Avatar:      patch.FromPtr(req.Avatar),
		Role: patch.Map(patch.FromPtr(req.Role), func(s string) domain.Role {
			r, _ := domain.ParseRole(s)
			return r
		}),
		Status: patch.FromPtr(req.Status),
	}
}

// --- Service output → Response ---

func toUserResponse(v ports.UserView) userResponse {
	resp := userResponse{
		ID:          v.ID,
		Username:    v.Username,
		Name:        v.Name,
		Email:       v.Email,
		Address:     v.Address,
		PhoneNumber: v.PhoneNumber,
		Bio:         v.Bio,
		Role:        v.Role,
		Status:      v.Status,
		Avatar:      v.Avatar,
	}
	if v.LastLogin != nil {
		d := v.LastLogin.UTC().Format(dateLayout)
		resp.LastLogin = &d
	}
	return resp
}

func toUserResponses(views []ports.UserView) []userResponse {
	out := make([]userResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toUserResponse(v))
	}
	return out
}

func toStatsResponse(s ports.UserStats) userStatsResponse {
	return userStatsResponse{
		TotalUsers:    s.TotalUsers,
		ActiveUsers:   s.ActiveUsers,
		AdherantUsers: s.AdherantUsers,
		AdminUsers:    s.AdminUsers,
	}
}
