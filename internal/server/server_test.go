package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/internal/config"
	"gather/internal/service"
	"gather/internal/session"
	"gather/internal/store"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type memGateway struct {
	mu      sync.Mutex
	records []store.Record
}

func (g *memGateway) LoadAll(ctx context.Context) ([]store.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]store.Record, len(g.records))
	copy(out, g.records)
	return out, nil
}

func (g *memGateway) SaveAll(ctx context.Context, records []store.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = make([]store.Record, len(records))
	copy(g.records, records)
	return nil
}

// newTestServer wires a server over in-memory gateways and in-process
// sessions, and returns the fiber app ready for app.Test.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	ctx := context.Background()

	accounts, err := service.NewAccountService(ctx, &memGateway{})
	require.NoError(t, err)
	posts, err := service.NewPostService(ctx, &memGateway{})
	require.NoError(t, err)
	comments, err := service.NewCommentService(ctx, &memGateway{}, posts.HasPost)
	require.NoError(t, err)
	cascade := service.NewCascade(accounts, posts, comments)

	cfg := &config.Config{
		Port:           "0",
		JWTSecret:      testSecret,
		StorageBackend: "file",
		SessionTTLH:    1,
	}
	sessions := session.NewManager(cfg.JWTSecret, time.Hour, nil)

	srv := NewServer(cfg, accounts, posts, comments, cascade, sessions, nil)
	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// signUp registers a user through the API and returns the session token.
func signUp(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// adminToken creates an admin directly through the service and logs it in.
func adminToken(t *testing.T, srv *Server, app *fiber.App) string {
	t.Helper()
	_, err := srv.accounts.CreateAdmin(context.Background(), "root", "pw1")
	require.NoError(t, err)
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "root",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func TestSignupLoginLogout(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	token := signUp(t, app, "alice", "pw1")

	resp, body := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	// The password hash never leaves the service.
	_, leaked := body["password_hash"]
	assert.False(t, leaked)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	signUp(t, app, "alice", "pw1")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "alice",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	signUp(t, app, "alice", "pw1")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBannedUserGetsBanErrorBeforePasswordCheck(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	signUp(t, app, "alice", "pw1")
	_, err := srv.accounts.Ban(context.Background(), "alice")
	require.NoError(t, err)

	// Wrong password against a banned account still reports the ban, so
	// the response never confirms whether the password was right.
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["error"], "banned")
}

func TestBanCutsOffLiveSession(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	token := signUp(t, app, "alice", "pw1")
	resp, _ := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := srv.accounts.Ban(context.Background(), "alice")
	require.NoError(t, err)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostAndCommentFlow(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	token := signUp(t, app, "alice", "pw1")

	resp, post := doJSON(t, app, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":   "Hello",
		"content": "First post.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := post["id"].(string)

	resp, comment := doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/comments", token, fiber.Map{
		"content": "Nice!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	commentID := comment["id"].(string)

	// Reply to the comment: comments nest under comments too.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/comments/"+commentID+"/replies", token, fiber.Map{
		"content": "Thanks!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts/"+postID+"/comments", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["comments"], 1)

	resp, body = doJSON(t, app, http.MethodGet, "/api/comments/"+commentID+"/replies", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["comments"], 1)
}

func TestDeletePostRequiresAuthorOrAdmin(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	aliceToken := signUp(t, app, "alice", "pw1")
	bobToken := signUp(t, app, "bob", "pw1")

	_, post := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, fiber.Map{
		"title":   "Hello",
		"content": "First post.",
	})
	postID := post["id"].(string)

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	rootToken := adminToken(t, srv, app)
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, rootToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFollowAndFeed(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	aliceToken := signUp(t, app, "alice", "pw1")
	signUp(t, app, "bob", "pw1")

	resp, body := doJSON(t, app, http.MethodPost, "/api/users/bob/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])

	// Following is idempotent.
	resp, body = doJSON(t, app, http.MethodPost, "/api/users/bob/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["changed"])

	// Bob writes; Alice's feed picks it up.
	_, loginBody := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "bob",
		"password": "pw1",
	})
	bobToken := loginBody["token"].(string)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/posts", bobToken, fiber.Map{
		"title":   "From bob",
		"content": "Hi.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/users/me/feed", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["posts"], 1)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	aliceToken := signUp(t, app, "alice", "pw1")
	signUp(t, app, "bob", "pw1")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/admin/users/bob/ban", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	rootToken := adminToken(t, srv, app)
	resp, body := doJSON(t, app, http.MethodPost, "/api/admin/users/bob/ban", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])

	// Second ban is a no-op, not an error.
	resp, body = doJSON(t, app, http.MethodPost, "/api/admin/users/bob/ban", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["changed"])
}

func TestAdminCannotBeBanned(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	rootToken := adminToken(t, srv, app)
	_, err := srv.accounts.CreateAdmin(context.Background(), "root2", "pw1")
	require.NoError(t, err)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/admin/users/root2/ban", rootToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPromoteThenModerate(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	aliceToken := signUp(t, app, "alice", "pw1")
	signUp(t, app, "bob", "pw1")

	rootToken := adminToken(t, srv, app)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/admin/users/alice/promote", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Alice's existing session now passes AdminRequired.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/admin/users/bob/ban", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Demotion takes effect on the next request just as fast.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/admin/users/alice/demote", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/admin/users/bob/ban", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteUserCascades(t *testing.T) {
	t.Parallel()
	srv, app := newTestServer(t)

	aliceToken := signUp(t, app, "alice", "pw1")
	bobToken := signUp(t, app, "bob", "pw1")

	_, post := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, fiber.Map{
		"title":   "Hello",
		"content": "First post.",
	})
	postID := post["id"].(string)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken, fiber.Map{
		"content": "Nice!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rootToken := adminToken(t, srv, app)
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/admin/users/alice", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, srv.comments.GetCommentsUnder(context.Background(), postID))

	// Alice's session is dead.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteMyAccount(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	token := signUp(t, app, "alice", "pw1")
	resp, _ := doJSON(t, app, http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMissingAuthHeader(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	for _, path := range []string{"/api/users/me", "/api/posts/x", "/api/admin/users"} {
		resp, _ := doJSON(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, fmt.Sprintf("path %s", path))
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
