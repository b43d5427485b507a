package service

import (
	"context"
	"testing"
	"time"

	"gather/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_AddAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("alice writes exactly one post", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)

		post, err := svc.AddPost(ctx, "T", "C", "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", post.Author)
		assert.NotEmpty(t, post.ID)

		posts := svc.GetPostsWrittenBy(ctx, "alice")
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)
	})

	t.Run("titles need not be unique", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)

		a, err := svc.AddPost(ctx, "same", "1", "alice")
		require.NoError(t, err)
		b, err := svc.AddPost(ctx, "same", "2", "alice")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)
		_, err := svc.AddPost(ctx, "", "content", "alice")
		assert.True(t, models.IsValidation(err))
	})

	t.Run("unknown post id", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)
		_, err := svc.GetPost(ctx, "nope")
		assert.True(t, models.IsNotFound(err))
	})
}

func TestPostService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delete then get fails", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)

		post, err := svc.AddPost(ctx, "T", "C", "alice")
		require.NoError(t, err)
		require.NoError(t, svc.DeletePost(ctx, post.ID))

		_, err = svc.GetPost(ctx, post.ID)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("deleting an unknown post fails", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)
		err := svc.DeletePost(ctx, "nope")
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("delete by author removes all and only theirs", func(t *testing.T) {
		t.Parallel()
		svc, _ := newPosts(t)

		_, err := svc.AddPost(ctx, "a1", "x", "alice")
		require.NoError(t, err)
		_, err = svc.AddPost(ctx, "a2", "x", "alice")
		require.NoError(t, err)
		kept, err := svc.AddPost(ctx, "b1", "x", "bob")
		require.NoError(t, err)

		deleted, err := svc.DeletePostsWrittenBy(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, deleted, 2)

		assert.Empty(t, svc.GetPostsWrittenBy(ctx, "alice"))
		remaining := svc.GetPostsWrittenBy(ctx, "bob")
		require.Len(t, remaining, 1)
		assert.Equal(t, kept.ID, remaining[0].ID)
	})
}

func TestPostService_FollowingFeed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newPosts(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err := svc.AddPost(ctx, "old", "x", "bob")
	require.NoError(t, err)
	_, err = svc.AddPost(ctx, "ignored", "x", "mallory")
	require.NoError(t, err)
	newest, err := svc.AddPost(ctx, "new", "x", "carol")
	require.NoError(t, err)

	feed := svc.GetFollowingPosts(ctx, []string{"bob", "carol"})
	require.Len(t, feed, 2, "only followed authors appear")
	assert.Equal(t, newest.ID, feed[0].ID, "most recent first")
	assert.Equal(t, "old", feed[1].Title)
}

func TestPostService_PersistsAcrossRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, gw := newPosts(t)
	post, err := svc.AddPost(ctx, "T", "C", "alice")
	require.NoError(t, err)

	reloaded, err := NewPostService(ctx, gw)
	require.NoError(t, err)

	got, err := reloaded.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "alice", got.Author)
}
