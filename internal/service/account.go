// Package service holds the business logic: the account, post, and comment
// services each exclusively own their entity collection in memory and
// rewrite it through the persistence gateway after every mutation.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gather/internal/models"
	"gather/internal/observability"
	"gather/internal/store"
	"gather/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// userRecord is the persisted form of a user. The password hash is hidden
// from API encodings of models.User but must survive the round trip to disk.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// AccountService owns users, credentials, roles, ban state, the follow
// graph, and login history. All mutations are serialized by one lock and
// persisted before the lock is released, so disk always matches memory at
// every observable commit point.
type AccountService struct {
	mu      sync.RWMutex
	gateway store.Gateway
	users   map[string]*models.User
	order   []string
	now     func() time.Time
}

// NewAccountService loads the user collection from the gateway.
func NewAccountService(ctx context.Context, gateway store.Gateway) (*AccountService, error) {
	records, err := gateway.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	s := &AccountService{
		gateway: gateway,
		users:   make(map[string]*models.User, len(records)),
		now:     time.Now,
	}
	for _, r := range records {
		var rec userRecord
		if err := json.Unmarshal(r.Data, &rec); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", r.ID, err)
		}
		user := rec.User
		user.PasswordHash = rec.PasswordHash
		s.users[user.Username] = &user
		s.order = append(s.order, user.Username)
	}
	return s, nil
}

// persistLocked rewrites the collection. Callers must hold the write lock.
func (s *AccountService) persistLocked(ctx context.Context) error {
	records := make([]store.Record, 0, len(s.order))
	for _, name := range s.order {
		u := s.users[name]
		data, err := json.Marshal(userRecord{User: *u, PasswordHash: u.PasswordHash})
		if err != nil {
			return models.NewInternalError(err)
		}
		records = append(records, store.Record{ID: name, Data: data})
	}
	if err := s.gateway.SaveAll(ctx, records); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// SignUp creates a regular account. Fails with a conflict if the username
// is taken and a validation error if it breaks format rules.
func (s *AccountService) SignUp(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, models.RoleRegular)
}

// CreateAdmin creates an account that starts with the admin role.
func (s *AccountService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, models.RoleAdmin)
}

func (s *AccountService) createUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, models.NewConflictError(fmt.Sprintf("username %q is already taken", username))
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	s.users[username] = user
	s.order = append(s.order, username)

	if err := s.persistLocked(ctx); err != nil {
		delete(s.users, username)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "account created",
		slog.String("username", username), slog.String("role", string(role)))
	copied := *user
	return &copied, nil
}

// Login authenticates the user and records the login timestamp. Checks run
// in a fixed order: existence, then ban state, then credential, so a banned
// account never learns whether its password was correct.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		observability.LoginAttempts.WithLabelValues("not_found").Inc()
		return nil, models.NewNotFoundError("user", username)
	}
	if user.Banned {
		observability.LoginAttempts.WithLabelValues("banned").Inc()
		return nil, models.NewUnauthorizedError(fmt.Sprintf("account %q is banned", username))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		observability.LoginAttempts.WithLabelValues("bad_password").Inc()
		return nil, models.NewUnauthorizedError("incorrect password")
	}

	user.LoginHistory = append(user.LoginHistory, s.now())
	if err := s.persistLocked(ctx); err != nil {
		user.LoginHistory = user.LoginHistory[:len(user.LoginHistory)-1]
		return nil, err
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	observability.Logger.InfoContext(ctx, "login", slog.String("username", username))
	copied := *user
	return &copied, nil
}

// Ban marks the target banned. Admins are ban-immune. The bool reports
// whether state changed; banning an already-banned user is a no-op.
func (s *AccountService) Ban(ctx context.Context, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[target]
	if !ok {
		return false, models.NewNotFoundError("user", target)
	}
	if user.IsAdmin() {
		return false, models.NewPermissionError(fmt.Sprintf("cannot ban %q: admins are ban-immune", target))
	}
	if user.Banned {
		return false, nil
	}

	user.Banned = true
	if err := s.persistLocked(ctx); err != nil {
		user.Banned = false
		return false, err
	}

	observability.Logger.InfoContext(ctx, "account banned", slog.String("username", target))
	return true, nil
}

// Unban lifts a ban. The bool reports whether state changed.
func (s *AccountService) Unban(ctx context.Context, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[target]
	if !ok {
		return false, models.NewNotFoundError("user", target)
	}
	if !user.Banned {
		return false, nil
	}

	user.Banned = false
	if err := s.persistLocked(ctx); err != nil {
		user.Banned = true
		return false, err
	}

	observability.Logger.InfoContext(ctx, "account unbanned", slog.String("username", target))
	return true, nil
}

// Promote elevates the target to the admin role. Promoting clears any ban,
// since admins cannot be banned.
func (s *AccountService) Promote(ctx context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[target]
	if !ok {
		return models.NewNotFoundError("user", target)
	}
	if user.IsAdmin() {
		return nil
	}

	prevRole, prevBanned := user.Role, user.Banned
	user.Role = models.RoleAdmin
	user.Banned = false
	if err := s.persistLocked(ctx); err != nil {
		user.Role, user.Banned = prevRole, prevBanned
		return err
	}

	observability.Logger.InfoContext(ctx, "account promoted", slog.String("username", target))
	return nil
}

// Demote returns the target to the regular role. Demoting a regular user
// is a no-op, mirroring Promote.
func (s *AccountService) Demote(ctx context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[target]
	if !ok {
		return models.NewNotFoundError("user", target)
	}
	if !user.IsAdmin() {
		return nil
	}

	user.Role = models.RoleRegular
	if err := s.persistLocked(ctx); err != nil {
		user.Role = models.RoleAdmin
		return err
	}

	observability.Logger.InfoContext(ctx, "account demoted", slog.String("username", target))
	return nil
}

// Follow adds the directed edge follower -> target. Following yourself is a
// conflict; following an already-followed user is a no-op returning false.
func (s *AccountService) Follow(ctx context.Context, follower, target string) (bool, error) {
	if follower == target {
		return false, models.NewConflictError("you cannot follow yourself")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.users[follower]
	if !ok {
		return false, models.NewNotFoundError("user", follower)
	}
	dst, ok := s.users[target]
	if !ok {
		return false, models.NewNotFoundError("user", target)
	}
	if src.Follows(target) {
		return false, nil
	}

	src.Following = append(src.Following, target)
	dst.Followers = append(dst.Followers, follower)
	if err := s.persistLocked(ctx); err != nil {
		src.Following = src.Following[:len(src.Following)-1]
		dst.Followers = dst.Followers[:len(dst.Followers)-1]
		return false, err
	}
	return true, nil
}

// Unfollow removes the directed edge. Removing an absent edge is a no-op
// returning false.
func (s *AccountService) Unfollow(ctx context.Context, follower, target string) (bool, error) {
	if follower == target {
		return false, models.NewConflictError("you cannot unfollow yourself")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.users[follower]
	if !ok {
		return false, models.NewNotFoundError("user", follower)
	}
	dst, ok := s.users[target]
	if !ok {
		return false, models.NewNotFoundError("user", target)
	}
	if !src.Follows(target) {
		return false, nil
	}

	prevFollowing, prevFollowers := src.Following, dst.Followers
	src.Following = remove(src.Following, target)
	dst.Followers = remove(dst.Followers, follower)
	if err := s.persistLocked(ctx); err != nil {
		src.Following, dst.Followers = prevFollowing, prevFollowers
		return false, err
	}
	return true, nil
}

// DeleteUser removes the account and every follow edge referencing it.
// Admins must be demoted before deletion.
func (s *AccountService) DeleteUser(ctx context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[target]
	if !ok {
		return models.NewNotFoundError("user", target)
	}
	if user.IsAdmin() {
		return models.NewPermissionError(fmt.Sprintf("cannot delete %q: demote the admin first", target))
	}

	delete(s.users, target)
	s.order = remove(s.order, target)
	for _, other := range s.users {
		other.Following = remove(other.Following, target)
		other.Followers = remove(other.Followers, target)
	}

	if err := s.persistLocked(ctx); err != nil {
		// Reload from the gateway on a failed delete: partial edge removal
		// must not stay visible.
		s.reloadLocked(ctx)
		return err
	}

	observability.Logger.InfoContext(ctx, "account deleted", slog.String("username", target))
	return nil
}

// reloadLocked restores in-memory state from the gateway after a failed
// multi-entity mutation. Callers must hold the write lock.
func (s *AccountService) reloadLocked(ctx context.Context) {
	records, err := s.gateway.LoadAll(ctx)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "reload users failed", slog.String("error", err.Error()))
		return
	}
	s.users = make(map[string]*models.User, len(records))
	s.order = s.order[:0]
	for _, r := range records {
		var rec userRecord
		if err := json.Unmarshal(r.Data, &rec); err != nil {
			continue
		}
		user := rec.User
		user.PasswordHash = rec.PasswordHash
		s.users[user.Username] = &user
		s.order = append(s.order, user.Username)
	}
}

// Get returns a copy of the user.
func (s *AccountService) Get(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, models.NewNotFoundError("user", username)
	}
	copied := *user
	return &copied, nil
}

// History returns the ordered login timestamps for the user.
func (s *AccountService) History(ctx context.Context, username string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, models.NewNotFoundError("user", username)
	}
	history := make([]time.Time, len(user.LoginHistory))
	copy(history, user.LoginHistory)
	return history, nil
}

// IsAdmin reports whether the user currently holds the admin role.
func (s *AccountService) IsAdmin(ctx context.Context, username string) (bool, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// IsBanned reports whether the user is currently banned.
func (s *AccountService) IsBanned(ctx context.Context, username string) (bool, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return false, err
	}
	return user.Banned, nil
}

// IsFollowing reports whether follower currently follows target.
func (s *AccountService) IsFollowing(ctx context.Context, follower, target string) (bool, error) {
	user, err := s.Get(ctx, follower)
	if err != nil {
		return false, err
	}
	return user.Follows(target), nil
}

// List returns every user in signup order.
func (s *AccountService) List(ctx context.Context) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.order))
	for _, name := range s.order {
		users = append(users, *s.users[name])
	}
	return users
}

// remove returns a fresh slice without target; the input is left intact so
// callers can keep it for rollback.
func remove(names []string, target string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != target {
			out = append(out, name)
		}
	}
	return out
}
