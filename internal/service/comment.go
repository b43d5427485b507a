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

// CommentService owns the comment collection. A comment's parent is either
// a post or another comment; post existence is checked through the injected
// predicate so the service stays decoupled from the post collection.
type CommentService struct {
	mu         sync.RWMutex
	gateway    store.Gateway
	comments   map[string]*models.Comment
	order      []string
	postExists func(ctx context.Context, id string) bool
	now        func() time.Time
}

// NewCommentService loads the comment collection from the gateway.
func NewCommentService(ctx context.Context, gateway store.Gateway, postExists func(ctx context.Context, id string) bool) (*CommentService, error) {
	records, err := gateway.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	s := &CommentService{
		gateway:    gateway,
		comments:   make(map[string]*models.Comment, len(records)),
		postExists: postExists,
		now:        time.Now,
	}
	for _, r := range records {
		var comment models.Comment
		if err := json.Unmarshal(r.Data, &comment); err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", r.ID, err)
		}
		s.comments[comment.ID] = &comment
		s.order = append(s.order, comment.ID)
	}
	return s, nil
}

func (s *CommentService) persistLocked(ctx context.Context) error {
	records := make([]store.Record, 0, len(s.order))
	for _, id := range s.order {
		data, err := json.Marshal(s.comments[id])
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

// AddComment creates a comment under the given parent, which must be an
// existing post or comment.
func (s *CommentService) AddComment(ctx context.Context, parentID, content, author string) (*models.Comment, error) {
	if content == "" {
		return nil, models.NewValidationError("comment content must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, isComment := s.comments[parentID]; !isComment && !s.postExists(ctx, parentID) {
		return nil, models.NewNotFoundError("parent", parentID)
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
	}
	s.comments[comment.ID] = comment
	s.order = append(s.order, comment.ID)

	if err := s.persistLocked(ctx); err != nil {
		delete(s.comments, comment.ID)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID), slog.String("parent_id", parentID))
	copied := *comment
	return &copied, nil
}

// GetCommentsUnder returns the direct children of the parent, ordered by
// creation time ascending.
func (s *CommentService) GetCommentsUnder(ctx context.Context, parentID string) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []models.Comment
	for _, id := range s.order {
		if s.comments[id].ParentID == parentID {
			comments = append(comments, *s.comments[id])
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments
}

// CountUnder returns the number of direct children of the parent.
func (s *CommentService) CountUnder(ctx context.Context, parentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.comments {
		if c.ParentID == parentID {
			count++
		}
	}
	return count
}

// DeleteCommentsUnder removes every comment reachable from the given
// parent, including nested replies. Invoked on post deletion.
func (s *CommentService) DeleteCommentsUnder(ctx context.Context, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := map[string]bool{parentID: true}
	// Children may appear before their parents in insertion order when
	// replies nest, so sweep until the set stops growing.
	for {
		grew := false
		for _, c := range s.comments {
			if !doomed[c.ID] && doomed[c.ParentID] {
				doomed[c.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	delete(doomed, parentID)
	if len(doomed) == 0 {
		return nil
	}

	removed := make(map[string]*models.Comment, len(doomed))
	kept := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if doomed[id] {
			removed[id] = s.comments[id]
			delete(s.comments, id)
		} else {
			kept = append(kept, id)
		}
	}
	prevOrder := s.order
	s.order = kept

	if err := s.persistLocked(ctx); err != nil {
		for id, c := range removed {
			s.comments[id] = c
		}
		s.order = prevOrder
		return err
	}

	observability.Logger.InfoContext(ctx, "comments cascaded",
		slog.String("parent_id", parentID), slog.Int("count", len(removed)))
	return nil
}
