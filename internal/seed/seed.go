// Package seed creates demo data through the service layer. It is meant
// for development and testing only; production data enters through the
// console or the API.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"gather/internal/observability"
	"gather/internal/service"
)

// Options controls the shape of the generated data set.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// FollowProbability is the chance, per ordered user pair, that the
	// first follows the second.
	FollowProbability float64
	// Seed makes the run reproducible when non-zero.
	Seed int64
	// AdminUsername and AdminPassword bootstrap the first admin account.
	AdminUsername string
	AdminPassword string
}

// DefaultOptions returns a small, readable demo data set.
func DefaultOptions() Options {
	return Options{
		Users:             8,
		PostsPerUser:      3,
		CommentsPerPost:   2,
		FollowProbability: 0.3,
		AdminUsername:     "admin",
		AdminPassword:     "admin-dev-password",
	}
}

// Seeder populates the services with generated users, posts, comments,
// and a follow mesh.
type Seeder struct {
	accounts *service.AccountService
	posts    *service.PostService
	comments *service.CommentService
	rand     *rand.Rand
	faker    *gofakeit.Faker
}

// NewSeeder returns a seeder over the given services.
func NewSeeder(accounts *service.AccountService, posts *service.PostService, comments *service.CommentService, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = gofakeit.New(0).Int64()
	}
	return &Seeder{
		accounts: accounts,
		posts:    posts,
		comments: comments,
		rand:     rand.New(rand.NewSource(seed)),
		faker:    gofakeit.New(seed),
	}
}

// Run generates the full data set described by opts.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.AdminUsername != "" {
		if _, err := s.accounts.CreateAdmin(ctx, opts.AdminUsername, opts.AdminPassword); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}

	usernames := make([]string, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		username := s.username(i)
		if _, err := s.accounts.SignUp(ctx, username, s.faker.Password(true, true, true, false, false, 12)); err != nil {
			return fmt.Errorf("seeding user %q: %w", username, err)
		}
		usernames = append(usernames, username)
	}

	for _, author := range usernames {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := s.posts.AddPost(ctx, s.faker.Sentence(5), s.faker.Paragraph(1, 3, 8, "\n"), author)
			if err != nil {
				return fmt.Errorf("seeding post for %q: %w", author, err)
			}
			for j := 0; j < opts.CommentsPerPost; j++ {
				commenter := usernames[s.rand.Intn(len(usernames))]
				if _, err := s.comments.AddComment(ctx, post.ID, s.faker.Sentence(8), commenter); err != nil {
					return fmt.Errorf("seeding comment on %q: %w", post.ID, err)
				}
			}
		}
	}

	follows := 0
	for _, follower := range usernames {
		for _, target := range usernames {
			if follower == target || s.rand.Float64() >= opts.FollowProbability {
				continue
			}
			if _, err := s.accounts.Follow(ctx, follower, target); err != nil {
				return fmt.Errorf("seeding follow %q -> %q: %w", follower, target, err)
			}
			follows++
		}
	}

	observability.Logger.Info("seed complete",
		"users", len(usernames),
		"posts", len(usernames)*opts.PostsPerUser,
		"follows", follows)
	return nil
}

// username produces a unique, validation-safe username. Faker output is
// sanitized because the account rules only allow [a-zA-Z0-9_-].
func (s *Seeder) username(i int) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, s.faker.Username())
	if base == "" {
		base = "user"
	}
	if len(base) > 25 {
		base = base[:25]
	}
	return fmt.Sprintf("%s-%d", base, i)
}
