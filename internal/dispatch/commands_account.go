package dispatch

import (
	"context"
	"fmt"
)

const timeLayout = "2006-01-02 15:04:05"

func viewHistoryCommand(svc *Services) Command {
	return &command{
		description: "View your login history",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			history, err := svc.Accounts.History(ctx, sess.Username())
			if err != nil {
				return OutcomeStay, err
			}
			for _, ts := range history {
				term.Print(ts.Format(timeLayout))
			}
			return OutcomeStay, nil
		},
	}
}

func followCommand(svc *Services) Command {
	return &command{
		description: "Follow an account",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to follow: ")
			if err != nil {
				return OutcomeStay, err
			}
			changed, err := svc.Accounts.Follow(ctx, sess.Username(), target)
			if err != nil {
				return OutcomeStay, err
			}
			if changed {
				term.Print(fmt.Sprintf("Successfully followed account: %s.", target))
			} else {
				term.Print(fmt.Sprintf("You already follow account %s.", target))
			}
			return OutcomeStay, nil
		},
	}
}

func unfollowCommand(svc *Services) Command {
	return &command{
		description: "Unfollow an account",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to unfollow: ")
			if err != nil {
				return OutcomeStay, err
			}
			changed, err := svc.Accounts.Unfollow(ctx, sess.Username(), target)
			if err != nil {
				return OutcomeStay, err
			}
			if changed {
				term.Print(fmt.Sprintf("Successfully unfollowed account: %s.", target))
			} else {
				term.Print(fmt.Sprintf("You do not follow account %s.", target))
			}
			return OutcomeStay, nil
		},
	}
}

func viewFollowersCommand(svc *Services) Command {
	return &command{
		description: "View your followers",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			user, err := svc.Accounts.Get(ctx, sess.Username())
			if err != nil {
				return OutcomeStay, err
			}
			if len(user.Followers) == 0 {
				term.Print("Nobody follows you yet.")
				return OutcomeStay, nil
			}
			for _, name := range user.Followers {
				term.Print(name)
			}
			return OutcomeStay, nil
		},
	}
}

func viewFollowingCommand(svc *Services) Command {
	return &command{
		description: "View accounts you follow",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			user, err := svc.Accounts.Get(ctx, sess.Username())
			if err != nil {
				return OutcomeStay, err
			}
			if len(user.Following) == 0 {
				term.Print("You do not follow anyone yet.")
				return OutcomeStay, nil
			}
			for _, name := range user.Following {
				term.Print(name)
			}
			return OutcomeStay, nil
		},
	}
}

func viewSelfProfileCommand(svc *Services) Command {
	return &command{
		description: "View your profile",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			return showProfile(ctx, svc, sess, term, sess.Username())
		},
	}
}

func viewProfileCommand(svc *Services) Command {
	return &command{
		description: "View another account's profile",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the profile you wish to view: ")
			if err != nil {
				return OutcomeStay, err
			}
			return showProfile(ctx, svc, sess, term, target)
		},
	}
}

// showProfile prints the subject's profile header and opens the post
// browser over their posts.
func showProfile(ctx context.Context, svc *Services, sess *Session, term Terminal, subject string) (Outcome, error) {
	user, err := svc.Accounts.Get(ctx, subject)
	if err != nil {
		return OutcomeStay, err
	}

	term.Print("")
	term.Print(fmt.Sprintf("Profile of %s (%s)", user.Username, user.Role))
	term.Print(fmt.Sprintf("Followers: %d, Following: %d", len(user.Followers), len(user.Following)))

	posts := svc.Posts.GetPostsWrittenBy(ctx, subject)
	return browsePosts(ctx, svc, sess, term, posts)
}

func viewFeedCommand(svc *Services) Command {
	return &command{
		description: "View your feed",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			user, err := svc.Accounts.Get(ctx, sess.Username())
			if err != nil {
				return OutcomeStay, err
			}
			posts := svc.Posts.GetFollowingPosts(ctx, user.Following)
			if len(posts) == 0 {
				term.Print("Your feed is empty.")
				return OutcomeStay, nil
			}
			return browsePosts(ctx, svc, sess, term, posts)
		},
	}
}

func addPostCommand(svc *Services) Command {
	return &command{
		description: "Write a post",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			title, err := term.Prompt("Enter the title of your post: ")
			if err != nil {
				return OutcomeStay, err
			}
			content, err := term.Prompt("Enter the content of your post: ")
			if err != nil {
				return OutcomeStay, err
			}
			if _, err := svc.Posts.AddPost(ctx, title, content, sess.Username()); err != nil {
				return OutcomeStay, err
			}
			term.Print("Successfully created post.")
			return OutcomeStay, nil
		},
	}
}

func deleteSelfCommand(svc *Services) Command {
	return &command{
		description: "Delete your account",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			if err := svc.Cascade.DeleteUser(ctx, sess.Username()); err != nil {
				return OutcomeStay, err
			}
			term.Print(fmt.Sprintf("Successfully deleted user: %s.", sess.Username()))
			sess.Clear()
			return OutcomeExit, nil
		},
	}
}
