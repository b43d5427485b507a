// Command console runs the interactive menu client over the shared
// service layer.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"gather/internal/bootstrap"
	"gather/internal/config"
	"gather/internal/dispatch"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	svc := &dispatch.Services{
		Accounts: rt.Accounts,
		Posts:    rt.Posts,
		Comments: rt.Comments,
		Cascade:  rt.Cascade,
	}

	term := dispatch.NewConsoleTerminal(os.Stdin, os.Stdout)
	sess := dispatch.NewSession()

	// A closed stdin is a normal way to leave the console.
	if err := dispatch.NewLandingDispatcher(svc).Run(ctx, sess, term); err != nil && !errors.Is(err, io.EOF) {
		log.Fatalf("Console session ended with error: %v", err)
	}
}
