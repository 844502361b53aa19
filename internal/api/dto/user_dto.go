package dto

import (
	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/service"
)

// RegisterRequest payload for new accounts. Password confirmation is checked
// by the auth service, not here.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=50"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshRequest carries the refresh token in the body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest is a self-service profile change.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=50"`
	Avatar   *string `json:"avatar" validate:"omitempty,url,max=2048"`
	Password *string `json:"password" validate:"omitempty,strongpassword"`
}

// ToProfileUpdate converts the request for the account service.
func (r UpdateProfileRequest) ToProfileUpdate() service.ProfileUpdate {
	return service.ProfileUpdate{Name: r.Name, Avatar: r.Avatar, Password: r.Password}
}

// AdminUpdateUserRequest is an administrative account change.
type AdminUpdateUserRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=50"`
	Role   *string `json:"role" validate:"omitempty,oneof=user admin super_admin"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive suspended pending"`
}

// ToAdminUpdate converts the request for the account service.
func (r AdminUpdateUserRequest) ToAdminUpdate() service.AdminUpdate {
	update := service.AdminUpdate{Name: r.Name}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		update.Role = &role
	}
	if r.Status != nil {
		status := domain.AccountStatus(*r.Status)
		update.Status = &status
	}
	return update
}

// ListUsersQuery captures pagination for the admin listing.
type ListUsersQuery struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
