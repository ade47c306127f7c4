package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service  *services.UserService
	policy   *services.AccessPolicy
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, policy *services.AccessPolicy) *UserHandler {
	return &UserHandler{
		service:  service,
		policy:   policy,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the user routes. auth guards the routes that need a caller.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Put("/:id", auth, h.HandleUpdateUser)
	userRoutes.Delete("/:id", auth, h.HandleDeleteUser)
	userRoutes.Get("/:id/profile", auth, h.HandleGetProfile)
}

// HandleListUsers returns a page of users, optionally filtered by role.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	opts, err := parseListOptions(c, h.validate)
	if err != nil {
		return respondQueryError(c, err)
	}
	filter := models.UserFilter{Role: models.Role(c.Query("role"))}
	if err := h.validate.Struct(filter); err != nil {
		return validationFailed(c, err)
	}

	users, err := h.service.ListUsers(opts, filter)
	if err != nil {
		slog.Error("error listing users", "error", err)
		return internalError(c, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

// HandleGetUser returns a single user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	user, err := h.service.GetUserByID(id)
	if err != nil {
		return h.respondError(c, id, err)
	}
	return c.JSON(user)
}

// HandleCreateUser creates a new user.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var input models.UserCreate
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(input); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.service.CreateUser(input)
	if err != nil {
		return h.respondError(c, 0, err)
	}
	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleUpdateUser applies a partial update. Callers may update themselves;
// admins may update anyone.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	var patch models.UserUpdate
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(patch); err != nil {
		return validationFailed(c, err)
	}

	if _, err := h.service.GetUserByID(id); err != nil {
		return h.respondError(c, id, err)
	}
	principal, _ := middleware.PrincipalFrom(c)
	if err := h.policy.CanModifyUser(principal, id); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only update your own profile",
		})
	}

	user, err := h.service.UpdateUser(id, patch)
	if err != nil {
		return h.respondError(c, id, err)
	}
	return c.JSON(user)
}

// HandleDeleteUser deletes a user. Admins only.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	principal, _ := middleware.PrincipalFrom(c)
	if err := h.policy.CanDeleteUser(principal); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Admin access required",
		})
	}
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}

	removed, err := h.service.DeleteUser(id)
	if err != nil {
		slog.Error("error deleting user", "user_id", id, "error", err)
		return internalError(c, "Could not delete user", err)
	}
	if !removed {
		return notFound(c, "User", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetProfile returns a user together with the name of the caller.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	principal, _ := middleware.PrincipalFrom(c)
	if err := h.policy.CanViewProfile(principal, id); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only view your own profile",
		})
	}

	user, err := h.service.GetUserByID(id)
	if err != nil {
		return h.respondError(c, id, err)
	}
	return c.JSON(fiber.Map{
		"user":      user,
		"viewed_by": principal.Name,
	})
}

func (h *UserHandler) respondError(c *fiber.Ctx, id int, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(c, "User", id)
	case errors.Is(err, services.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Email already registered",
			"error":   err.Error(),
		})
	}
	slog.Error("user request failed", "user_id", id, "error", err)
	return internalError(c, "Could not process user request", err)
}

func notFound(c *fiber.Ctx, kind string, id int) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": fmt.Sprintf("%s %d not found", kind, id),
	})
}
