// Command seed populates the configured storage backend with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"gather/internal/bootstrap"
	"gather/internal/config"
	"gather/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "Comments per post")
	flag.Float64Var(&opts.FollowProbability, "follow-prob", opts.FollowProbability, "Probability of a follow per user pair")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 = random)")
	flag.StringVar(&opts.AdminUsername, "admin-user", opts.AdminUsername, "Bootstrap admin username (empty = skip)")
	flag.StringVar(&opts.AdminPassword, "admin-pass", opts.AdminPassword, "Bootstrap admin password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	seeder := seed.NewSeeder(rt.Accounts, rt.Posts, rt.Comments, opts)
	if err := seeder.Run(ctx, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users with %d posts each into the %s backend",
		opts.Users, opts.PostsPerUser, cfg.StorageBackend)
}
