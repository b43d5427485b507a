package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gather/internal/models"
)

// browsePosts lists posts, lets the user pick one by number (0 returns),
// shows it with its comment thread, and opens the post-scoped menu. The
// selection loop follows the same retry rule as the dispatcher: invalid
// input re-prompts without side effects.
func browsePosts(ctx context.Context, svc *Services, sess *Session, term Terminal, posts []models.Post) (Outcome, error) {
	if len(posts) == 0 {
		term.Print("No posts to show.")
		return OutcomeStay, nil
	}

	for {
		for i, post := range posts {
			term.Print(fmt.Sprintf("%d. %s (by %s, %d comments)",
				i+1, post.Title, post.Author, svc.Comments.CountUnder(ctx, post.ID)))
		}

		line, err := term.Prompt("Enter the number of the post you wish to view or 0 to return: ")
		if err != nil {
			return OutcomeStay, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || n < 0 || n > len(posts) {
			term.Print("The number input is invalid.")
			continue
		}
		if n == 0 {
			return OutcomeStay, nil
		}

		post := posts[n-1]
		// Re-read through the service: the post may be gone by now.
		current, err := svc.Posts.GetPost(ctx, post.ID)
		if err != nil {
			return OutcomeStay, err
		}
		showPost(ctx, svc, term, current)
		if err := newPostDispatcher(svc, current.ID).Run(ctx, sess, term); err != nil {
			return OutcomeStay, err
		}
		return OutcomeStay, nil
	}
}

// showPost prints one post and its direct comment thread.
func showPost(ctx context.Context, svc *Services, term Terminal, post *models.Post) {
	term.Print("")
	term.Print(fmt.Sprintf("Written by: %s", post.Author))
	term.Print(fmt.Sprintf("Title: %s", post.Title))
	term.Print(fmt.Sprintf("Content: %s", post.Content))
	term.Print(fmt.Sprintf("Time posted: %s", post.CreatedAt.Format(timeLayout)))

	comments := svc.Comments.GetCommentsUnder(ctx, post.ID)
	if len(comments) > 0 {
		term.Print("Comments:")
		for _, comment := range comments {
			term.Print(fmt.Sprintf("  %s: %s", comment.Author, comment.Content))
		}
	}
}

// newPostDispatcher builds the menu scoped to one post.
func newPostDispatcher(svc *Services, postID string) *Dispatcher {
	return NewDispatcher("",
		addCommentCommand(svc, postID),
		deletePostCommand(svc, postID),
		returnCommand(),
	)
}

func addCommentCommand(svc *Services, postID string) Command {
	return &command{
		description: "Add a comment",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			content, err := term.Prompt("Enter your comment: ")
			if err != nil {
				return OutcomeStay, err
			}
			if _, err := svc.Comments.AddComment(ctx, postID, content, sess.Username()); err != nil {
				return OutcomeStay, err
			}
			term.Print("Successfully added comment.")
			return OutcomeStay, nil
		},
	}
}

// deletePostCommand is offered to the post's author and to admins.
func deletePostCommand(svc *Services, postID string) Command {
	return &command{
		description: "Delete this post",
		applicable: func(ctx context.Context, sess *Session) bool {
			post, err := svc.Posts.GetPost(ctx, postID)
			if err != nil {
				return false
			}
			return post.Author == sess.Username() || svc.isAdmin(ctx, sess)
		},
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			if err := svc.Cascade.DeletePost(ctx, postID); err != nil {
				return OutcomeStay, err
			}
			term.Print("Successfully deleted post.")
			return OutcomeExit, nil
		},
	}
}
