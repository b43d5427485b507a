package dispatch

import (
	"context"
	"fmt"
)

func banUserCommand(svc *Services) Command {
	return &command{
		description: "Ban an account",
		applicable:  svc.isAdmin,
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to ban: ")
			if err != nil {
				return OutcomeStay, err
			}
			changed, err := svc.Accounts.Ban(ctx, target)
			if err != nil {
				return OutcomeStay, err
			}
			if changed {
				term.Print(fmt.Sprintf("Successfully banned account: %s.", target))
			} else {
				term.Print(fmt.Sprintf("Unsuccessful ban, account %s was already banned.", target))
			}
			return OutcomeStay, nil
		},
	}
}

func unbanUserCommand(svc *Services) Command {
	return &command{
		description: "Unban an account",
		applicable:  svc.isAdmin,
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to unban: ")
			if err != nil {
				return OutcomeStay, err
			}
			changed, err := svc.Accounts.Unban(ctx, target)
			if err != nil {
				return OutcomeStay, err
			}
			if changed {
				term.Print(fmt.Sprintf("Successfully unbanned account: %s.", target))
			} else {
				term.Print(fmt.Sprintf("Unsuccessful unban, account %s was not banned.", target))
			}
			return OutcomeStay, nil
		},
	}
}

func promoteUserCommand(svc *Services) Command {
	return &command{
		description: "Promote an account to admin",
		applicable:  svc.isAdmin,
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to promote: ")
			if err != nil {
				return OutcomeStay, err
			}
			if err := svc.Accounts.Promote(ctx, target); err != nil {
				return OutcomeStay, err
			}
			term.Print(fmt.Sprintf("Successfully promoted account: %s.", target))
			return OutcomeStay, nil
		},
	}
}

func createAdminCommand(svc *Services) Command {
	return &command{
		description: "Create an admin account",
		applicable:  svc.isAdmin,
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			username, err := term.Prompt("Enter a username for the new admin: ")
			if err != nil {
				return OutcomeStay, err
			}
			password, err := term.Prompt("Enter a password for the new admin: ")
			if err != nil {
				return OutcomeStay, err
			}
			if _, err := svc.Accounts.CreateAdmin(ctx, username, password); err != nil {
				return OutcomeStay, err
			}
			term.Print(fmt.Sprintf("Successfully created admin: %s.", username))
			return OutcomeStay, nil
		},
	}
}

func deleteUserCommand(svc *Services) Command {
	return &command{
		description: "Delete an account",
		applicable:  svc.isAdmin,
		execute: func(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
			target, err := term.Prompt("Enter the username of the account you wish to delete: ")
			if err != nil {
				return OutcomeStay, err
			}
			if err := svc.Cascade.DeleteUser(ctx, target); err != nil {
				return OutcomeStay, err
			}
			term.Print(fmt.Sprintf("Successfully deleted user: %s.", target))
			return OutcomeStay, nil
		},
	}
}
