package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/kaie-api/internal/api/dto"
	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/service"
	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

// UsersHandler exposes profile and admin account endpoints.
type UsersHandler struct {
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts *service.AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// Profile handles GET /users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromCtx(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	account, err := h.accounts.Profile(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": account})
}

// UpdateProfile handles PUT /users/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromCtx(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.accounts.UpdateProfile(c.UserContext(), identity.ID, req.ToProfileUpdate())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": account})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var query dto.ListUsersQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(query); err != nil {
		return err
	}
	page, err := h.accounts.List(c.UserContext(), query.Page, query.Limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	account, err := h.accounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": account})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.IdentityFromCtx(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req dto.AdminUpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.accounts.Update(c.UserContext(), actor, id, req.ToAdminUpdate())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": account})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.IdentityFromCtx(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func accountID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewValidationError("invalid account id", map[string]any{"id": id})
	}
	return id, nil
}
