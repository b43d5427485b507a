package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gather/internal/models"
	"gather/internal/observability"
	"gather/internal/store"

	"github.com/google/uuid"
)

// PostService owns the post collection.
type PostService struct {
	mu      sync.RWMutex
	gateway store.Gateway
	posts   map[string]*models.Post
	order   []string
	now     func() time.Time
}

// NewPostService loads the post collection from the gateway.
func NewPostService(ctx context.Context, gateway store.Gateway) (*PostService, error) {
	records, err := gateway.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	s := &PostService{
		gateway: gateway,
		posts:   make(map[string]*models.Post, len(records)),
		now:     time.Now,
	}
	for _, r := range records {
		var post models.Post
		if err := json.Unmarshal(r.Data, &post); err != nil {
			return nil, fmt.Errorf("decode post %s: %w", r.ID, err)
		}
		s.posts[post.ID] = &post
		s.order = append(s.order, post.ID)
	}
	return s, nil
}

func (s *PostService) persistLocked(ctx context.Context) error {
	records := make([]store.Record, 0, len(s.order))
	for _, id := range s.order {
		data, err := json.Marshal(s.posts[id])
		if err != nil {
			return models.NewInternalError(err)
		}
		records = append(records, store.Record{ID: id, Data: data})
	}
	if err := s.gateway.SaveAll(ctx, records); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AddPost creates a post with a fresh identifier. Titles are not unique.
func (s *PostService) AddPost(ctx context.Context, title, content, author string) (*models.Post, error) {
	if title == "" {
		return nil, models.NewValidationError("post title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
	}
	s.posts[post.ID] = post
	s.order = append(s.order, post.ID)

	if err := s.persistLocked(ctx); err != nil {
		delete(s.posts, post.ID)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID), slog.String("author", author))
	copied := *post
	return &copied, nil
}

// DeletePost removes the post. Comment cascade is the coordinator's job;
// this call only guarantees the post itself is gone.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return models.NewNotFoundError("post", id)
	}

	delete(s.posts, id)
	s.order = remove(s.order, id)
	if err := s.persistLocked(ctx); err != nil {
		s.posts[id] = post
		s.order = append(s.order, id)
		return err
	}

	observability.Logger.InfoContext(ctx, "post deleted", slog.String("post_id", id))
	return nil
}

// DeletePostsWrittenBy removes every post by the author in one step and
// returns the removed ids so the caller can cascade comments. The removal
// is applied and persisted under the lock: no partially-removed state is
// visible to subsequent reads.
func (s *PostService) DeletePostsWrittenBy(ctx context.Context, author string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	kept := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if s.posts[id].Author == author {
			deleted = append(deleted, id)
		} else {
			kept = append(kept, id)
		}
	}
	if len(deleted) == 0 {
		return nil, nil
	}

	removedPosts := make(map[string]*models.Post, len(deleted))
	for _, id := range deleted {
		removedPosts[id] = s.posts[id]
		delete(s.posts, id)
	}
	prevOrder := s.order
	s.order = kept

	if err := s.persistLocked(ctx); err != nil {
		for id, post := range removedPosts {
			s.posts[id] = post
		}
		s.order = prevOrder
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "posts deleted by author",
		slog.String("author", author), slog.Int("count", len(deleted)))
	return deleted, nil
}

// GetPost returns a copy of the post.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	copied := *post
	return &copied, nil
}

// HasPost reports whether the post exists.
func (s *PostService) HasPost(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posts[id]
	return ok
}

// GetPostsWrittenBy returns the author's posts, most recent first.
func (s *PostService) GetPostsWrittenBy(ctx context.Context, author string) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []models.Post
	for _, id := range s.order {
		if s.posts[id].Author == author {
			posts = append(posts, *s.posts[id])
		}
	}
	sortNewestFirst(posts)
	return posts
}

// GetFollowingPosts returns the union of posts by the followed authors,
// most recent first.
func (s *PostService) GetFollowingPosts(ctx context.Context, following []string) []models.Post {
	followed := make(map[string]bool, len(following))
	for _, name := range following {
		followed[name] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []models.Post
	for _, id := range s.order {
		if followed[s.posts[id].Author] {
			posts = append(posts, *s.posts[id])
		}
	}
	sortNewestFirst(posts)
	return posts
}

func sortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
