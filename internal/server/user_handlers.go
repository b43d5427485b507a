package server

import (
	"github.com/gofiber/fiber/v2"

	"gather/internal/models"
)

// GetMyProfile handles GET /api/users/me.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.accounts.Get(c.UserContext(), s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.accounts.Get(c.UserContext(), c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(user)
}

// GetMyLoginHistory handles GET /api/users/me/history.
func (s *Server) GetMyLoginHistory(c *fiber.Ctx) error {
	history, err := s.accounts.History(c.UserContext(), s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"history": history})
}

// GetMyFollowers handles GET /api/users/me/followers.
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	user, err := s.accounts.Get(c.UserContext(), s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"followers": user.Followers})
}

// GetMyFollowing handles GET /api/users/me/following.
func (s *Server) GetMyFollowing(c *fiber.Ctx) error {
	user, err := s.accounts.Get(c.UserContext(), s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"following": user.Following})
}

// FollowUser handles POST /api/users/:username/follow.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	target := c.Params("username")
	changed, err := s.accounts.Follow(c.UserContext(), s.currentUsername(c), target)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"following": target,
		"changed":   changed,
	})
}

// UnfollowUser handles DELETE /api/users/:username/follow.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	target := c.Params("username")
	changed, err := s.accounts.Unfollow(c.UserContext(), s.currentUsername(c), target)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{
		"unfollowed": target,
		"changed":    changed,
	})
}

// GetMyFeed handles GET /api/users/me/feed: posts by followed accounts,
// newest first.
func (s *Server) GetMyFeed(c *fiber.Ctx) error {
	user, err := s.accounts.Get(c.UserContext(), s.currentUsername(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	posts := s.posts.GetFollowingPosts(c.UserContext(), user.Following)
	return c.JSON(fiber.Map{"posts": posts})
}

// DeleteMyAccount handles DELETE /api/users/me. The caller's posts,
// comments under them, and follow edges go with the account; the session
// token dies with the ban-or-deleted re-check on the next request.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.cascade.DeleteUser(c.UserContext(), s.currentUsername(c)); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted"})
}
