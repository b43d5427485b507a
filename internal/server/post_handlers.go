package server

import (
	"github.com/gofiber/fiber/v2"

	"gather/internal/models"
)

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.AddPost(c.UserContext(), req.Title, req.Content, s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.posts.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:username/posts.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.accounts.Get(c.UserContext(), username); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	posts := s.posts.GetPostsWrittenBy(c.UserContext(), username)
	return c.JSON(fiber.Map{"posts": posts})
}

// DeletePost handles DELETE /api/posts/:id. Only the author or an admin
// may delete; the post's comment thread is removed with it.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id := c.Params("id")
	post, err := s.posts.GetPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	username := s.currentUsername(c)
	if post.Author != username {
		admin, err := s.accounts.IsAdmin(c.UserContext(), username)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionError("Only the author or an admin can delete this post"))
		}
	}

	if err := s.cascade.DeletePost(c.UserContext(), id); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// CreateComment handles POST /api/posts/:id/comments and
// POST /api/comments/:id/replies; the parent may be a post or a comment.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.AddComment(c.UserContext(), c.Params("id"), req.Content, s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments and
// GET /api/comments/:id/replies, oldest first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments := s.comments.GetCommentsUnder(c.UserContext(), c.Params("id"))
	return c.JSON(fiber.Map{"comments": comments})
}
