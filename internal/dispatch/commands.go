package dispatch

import (
	"context"
	"fmt"

	"gather/internal/service"
)

// Services bundles the three management services and the cascade
// coordinator for command construction.
type Services struct {
	Accounts *service.AccountService
	Posts    *service.PostService
	Comments *service.CommentService
	Cascade  *service.Cascade
}

// isAdmin is the applicability predicate for admin-only commands.
func (s *Services) isAdmin(ctx context.Context, sess *Session) bool {
	if !sess.Authenticated() {
		return false
	}
	ok, err := s.Accounts.IsAdmin(ctx, sess.Username())
	return err == nil && ok
}

// NewLandingDispatcher builds the entry menu: authenticate or quit.
func NewLandingDispatcher(svc *Services) *Dispatcher {
	return NewDispatcher("Welcome.",
		loginCommand(svc),
		signUpCommand(svc),
		quitCommand(),
	)
}

// NewHomeDispatcher builds the post-login menu. Admin commands are in the
// candidate list for everyone and hidden by their applicability predicate,
// so a promotion mid-session shows up on the next prompt.
func NewHomeDispatcher(svc *Services) *Dispatcher {
	return NewDispatcher("What would you like to do?",
		viewSelfProfileCommand(svc),
		viewFeedCommand(svc),
		viewProfileCommand(svc),
		addPostCommand(svc),
		followCommand(svc),
		unfollowCommand(svc),
		viewFollowersCommand(svc),
		viewFollowingCommand(svc),
		viewHistoryCommand(svc),
		banUserCommand(svc),
		unbanUserCommand(svc),
		promoteUserCommand(svc),
		createAdminCommand(svc),
		deleteUserCommand(svc),
		deleteSelfCommand(svc),
		logoutCommand(),
	)
}

func loginCommand(svc *Services) Command {
	return &command{
		description: "Log in to your account",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			username, err := term.Prompt("Enter your username: ")
			if err != nil {
				return OutcomeStay, err
			}
			password, err := term.Prompt("Enter your password: ")
			if err != nil {
				return OutcomeStay, err
			}

			if _, err := svc.Accounts.Login(ctx, username, password); err != nil {
				return OutcomeStay, err
			}
			term.Print("Successfully logged in.")

			sess.Authenticate(username)
			runErr := NewHomeDispatcher(svc).Run(ctx, sess, term)
			sess.Clear()
			return OutcomeStay, runErr
		},
	}
}

func signUpCommand(svc *Services) Command {
	return &command{
		description: "Sign up a new account",
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			username, err := term.Prompt("Enter a username: ")
			if err != nil {
				return OutcomeStay, err
			}
			password, err := term.Prompt("Enter a password: ")
			if err != nil {
				return OutcomeStay, err
			}

			if _, err := svc.Accounts.SignUp(ctx, username, password); err != nil {
				return OutcomeStay, err
			}
			term.Print(fmt.Sprintf("Successfully created account: %s.", username))
			return OutcomeStay, nil
		},
	}
}

func quitCommand() Command {
	return &command{
		description: "Quit",
		execute: func(context.Context, *Session, Terminal) (Outcome, error) {
			return OutcomeExit, nil
		},
	}
}

func logoutCommand() Command {
	return &command{
		description: "Log out",
		execute: func(_ context.Context, sess *Session, term Terminal) (Outcome, error) {
			term.Print("Successfully logged out.")
			sess.Clear()
			return OutcomeExit, nil
		},
	}
}
