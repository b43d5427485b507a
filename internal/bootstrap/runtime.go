// Package bootstrap wires storage and services for the entry points, so
// the console, server, and maintenance commands share one construction
// path.
package bootstrap

import (
	"context"
	"fmt"

	"gather/internal/config"
	"gather/internal/service"
	"gather/internal/store"
)

// Runtime bundles the fully wired service layer.
type Runtime struct {
	Accounts *service.AccountService
	Posts    *service.PostService
	Comments *service.CommentService
	Cascade  *service.Cascade
}

// InitRuntime builds the persistence gateways for the configured backend
// and loads the services from them.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	var users, posts, comments store.Gateway

	switch cfg.StorageBackend {
	case "db":
		db, err := store.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		users = store.NewDBGateway(db, "users")
		posts = store.NewDBGateway(db, "posts")
		comments = store.NewDBGateway(db, "comments")
	default:
		users = store.NewFileGateway(cfg.DataDir, "users")
		posts = store.NewFileGateway(cfg.DataDir, "posts")
		comments = store.NewFileGateway(cfg.DataDir, "comments")
	}

	accountService, err := service.NewAccountService(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	postService, err := service.NewPostService(ctx, posts)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}
	commentService, err := service.NewCommentService(ctx, comments, postService.HasPost)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}

	return &Runtime{
		Accounts: accountService,
		Posts:    postService,
		Comments: commentService,
		Cascade:  service.NewCascade(accountService, postService, commentService),
	}, nil
}
