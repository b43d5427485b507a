package server

import (
	"github.com/gofiber/fiber/v2"

	"gather/internal/models"
)

// ListUsers handles GET /api/admin/users.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"users": s.accounts.List(c.UserContext())})
}

// CreateAdmin handles POST /api/admin/users.
func (s *Server) CreateAdmin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accounts.CreateAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// BanUser handles POST /api/admin/users/:username/ban. Banning an
// already-banned account reports changed=false rather than an error.
func (s *Server) BanUser(c *fiber.Ctx) error {
	target := c.Params("username")
	changed, err := s.accounts.Ban(c.UserContext(), target)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"username": target,
		"banned":   true,
		"changed":  changed,
	})
}

// UnbanUser handles DELETE /api/admin/users/:username/ban.
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	target := c.Params("username")
	changed, err := s.accounts.Unban(c.UserContext(), target)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"username": target,
		"banned":   false,
		"changed":  changed,
	})
}

// PromoteUser handles POST /api/admin/users/:username/promote.
func (s *Server) PromoteUser(c *fiber.Ctx) error {
	target := c.Params("username")
	if err := s.accounts.Promote(c.UserContext(), target); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"username": target,
		"role":     models.RoleAdmin,
	})
}

// DemoteUser handles POST /api/admin/users/:username/demote.
func (s *Server) DemoteUser(c *fiber.Ctx) error {
	target := c.Params("username")
	if err := s.accounts.Demote(c.UserContext(), target); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"username": target,
		"role":     models.RoleRegular,
	})
}

// DeleteUser handles DELETE /api/admin/users/:username, removing the
// account together with its posts, their comments, and follow edges.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	target := c.Params("username")
	if err := s.cascade.DeleteUser(c.UserContext(), target); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
