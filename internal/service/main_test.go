package service

import (
	"context"
	"sync"
	"testing"

	"gather/internal/store"

	"github.com/stretchr/testify/require"
)

// memGateway is an in-memory store.Gateway for tests.
type memGateway struct {
	mu      sync.Mutex
	records []store.Record
	saveErr error
	saves   int
}

func (g *memGateway) LoadAll(context.Context) ([]store.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]store.Record, len(g.records))
	copy(out, g.records)
	return out, nil
}

func (g *memGateway) SaveAll(_ context.Context, records []store.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.records = make([]store.Record, len(records))
	copy(g.records, records)
	g.saves++
	return nil
}

func newAccounts(t *testing.T) (*AccountService, *memGateway) {
	t.Helper()
	gw := &memGateway{}
	svc, err := NewAccountService(context.Background(), gw)
	require.NoError(t, err)
	return svc, gw
}

func newPosts(t *testing.T) (*PostService, *memGateway) {
	t.Helper()
	gw := &memGateway{}
	svc, err := NewPostService(context.Background(), gw)
	require.NoError(t, err)
	return svc, gw
}

func newComments(t *testing.T, posts *PostService) (*CommentService, *memGateway) {
	t.Helper()
	gw := &memGateway{}
	svc, err := NewCommentService(context.Background(), gw, posts.HasPost)
	require.NoError(t, err)
	return svc, gw
}

// newStack wires all three services over fresh gateways plus the cascade.
func newStack(t *testing.T) (*Cascade, *AccountService, *PostService, *CommentService) {
	t.Helper()
	accounts, _ := newAccounts(t)
	posts, _ := newPosts(t)
	comments, _ := newComments(t, posts)
	return NewCascade(accounts, posts, comments), accounts, posts, comments
}
