package service

import (
	"context"
	"log/slog"

	"gather/internal/observability"
)

// Cascade coordinates deletions that span the three services: deleting a
// post takes its comment tree with it, and deleting a user takes their
// posts and everything under those posts. The ordering lives here, in one
// place, instead of being implied by whoever happens to call the services.
type Cascade struct {
	Accounts *AccountService
	Posts    *PostService
	Comments *CommentService
}

// NewCascade returns a coordinator over the three services.
func NewCascade(accounts *AccountService, posts *PostService, comments *CommentService) *Cascade {
	return &Cascade{Accounts: accounts, Posts: posts, Comments: comments}
}

// DeletePost removes the post and cascades to its comments. No orphaned
// comments remain afterwards.
func (c *Cascade) DeletePost(ctx context.Context, postID string) error {
	if err := c.Posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	return c.Comments.DeleteCommentsUnder(ctx, postID)
}

// DeleteUser removes the account, then their posts, then the comments
// under each removed post. Account-level failures (unknown user, admin
// target) surface before any content is touched.
func (c *Cascade) DeleteUser(ctx context.Context, target string) error {
	if err := c.Accounts.DeleteUser(ctx, target); err != nil {
		return err
	}

	postIDs, err := c.Posts.DeletePostsWrittenBy(ctx, target)
	if err != nil {
		return err
	}
	for _, id := range postIDs {
		if err := c.Comments.DeleteCommentsUnder(ctx, id); err != nil {
			return err
		}
	}

	observability.Logger.InfoContext(ctx, "user cascade complete",
		slog.String("username", target), slog.Int("posts_removed", len(postIDs)))
	return nil
}
