// Command admin provides account maintenance utilities: promoting users,
// banning, and bootstrapping admin accounts without going through the
// interactive console.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gather/internal/bootstrap"
	"gather/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	switch os.Args[1] {
	case "promote":
		requireArgs(3, "promote <username>")
		if err := rt.Accounts.Promote(ctx, os.Args[2]); err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("Successfully promoted account: %s.\n", os.Args[2])

	case "demote":
		requireArgs(3, "demote <username>")
		if err := rt.Accounts.Demote(ctx, os.Args[2]); err != nil {
			log.Fatalf("Failed to demote user: %v", err)
		}
		fmt.Printf("Successfully demoted account: %s.\n", os.Args[2])

	case "create-admin":
		requireArgs(4, "create-admin <username> <password>")
		if _, err := rt.Accounts.CreateAdmin(ctx, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		fmt.Printf("Successfully created admin: %s.\n", os.Args[2])

	case "ban":
		requireArgs(3, "ban <username>")
		changed, err := rt.Accounts.Ban(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Failed to ban user: %v", err)
		}
		if changed {
			fmt.Printf("Successfully banned account: %s.\n", os.Args[2])
		} else {
			fmt.Printf("Unsuccessful ban, account %s was already banned.\n", os.Args[2])
		}

	case "unban":
		requireArgs(3, "unban <username>")
		changed, err := rt.Accounts.Unban(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Failed to unban user: %v", err)
		}
		if changed {
			fmt.Printf("Successfully unbanned account: %s.\n", os.Args[2])
		} else {
			fmt.Printf("Unsuccessful unban, account %s was not banned.\n", os.Args[2])
		}

	case "list-admins":
		for _, user := range rt.Accounts.List(ctx) {
			if user.IsAdmin() {
				fmt.Println(user.Username)
			}
		}

	case "list-users":
		for _, user := range rt.Accounts.List(ctx) {
			status := ""
			if user.Banned {
				status = " (banned)"
			}
			fmt.Printf("%s [%s]%s\n", user.Username, user.Role, status)
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <username>                 - Promote a user to admin")
	fmt.Println("  admin demote <username>                  - Demote an admin to regular")
	fmt.Println("  admin create-admin <username> <password> - Create a new admin account")
	fmt.Println("  admin ban <username>                     - Ban an account")
	fmt.Println("  admin unban <username>                   - Unban an account")
	fmt.Println("  admin list-admins                        - List all admins")
	fmt.Println("  admin list-users                         - List all accounts")
}

func requireArgs(n int, form string) {
	if len(os.Args) < n {
		fmt.Printf("Usage: admin %s\n", form)
		os.Exit(1)
	}
}
