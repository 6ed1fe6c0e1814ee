package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamline/internal/config"
	"teamline/internal/database"
	"teamline/internal/middleware"
	"teamline/internal/storage"
	"teamline/internal/types"
)

// newTestApp wires the routes the way the server binary does, against an
// in-memory database and store.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{SessionTTLHours: 1, InviteTTLHours: 1, ResetTTLHours: 1}
	store := storage.NewMemoryStore()
	caps := database.Capabilities{Tags: true, Shares: true, Mentions: true, Attachments: true, Folders: true}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var reqErr *types.RequestError
			var fiberErr *fiber.Error
			switch {
			case errors.As(err, &reqErr):
				code = reqErr.Code
				message = reqErr.Message
			case errors.As(err, &fiberErr):
				code = fiberErr.Code
				message = fiberErr.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	authHandler := &AuthHandler{DB: db, Cfg: cfg}
	postHandler := &PostHandler{DB: db, Caps: caps}
	folderHandler := &FolderHandler{DB: db}
	notificationHandler := &NotificationHandler{DB: db}
	mediaHandler := &MediaHandler{DB: db, Store: store}

	api := app.Group("/api")
	requireUser := middleware.RequireUser(db)
	requireAdmin := middleware.RequireAdmin(db)

	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Get("/me", requireUser, authHandler.Me)
	api.Get("/invitations", requireAdmin, authHandler.ListInvitations)
	api.Post("/invitations", requireAdmin, authHandler.CreateInvitation)
	api.Get("/posts", requireUser, postHandler.ListPosts)
	api.Post("/posts", requireUser, postHandler.CreatePost)
	api.Post("/folders", requireUser, folderHandler.CreateFolder)
	api.Put("/folders/:id", requireUser, folderHandler.UpdateFolder)
	api.Get("/notifications", requireUser, notificationHandler.ListNotifications)
	api.Patch("/notifications", requireUser, notificationHandler.MarkRead)
	api.Get("/files/thread", requireUser, mediaHandler.GetThread)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return out
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	t.Fatal("response carries no session cookie")
	return ""
}

func registerAndLogin(t *testing.T, app *fiber.App, name, email, token string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/register", map[string]string{
		"name": name, "email": email, "password": "password1", "inviteToken": token,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": "password1",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	cookie := sessionCookie(t, resp)
	resp.Body.Close()
	return cookie
}

func TestAuthOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	cookie := registerAndLogin(t, app, "Alice", "alice@example.com", "")

	resp := doJSON(t, app, http.MethodGet, "/api/me", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/me: status %d", resp.StatusCode)
	}
	me := decodeBody(t, resp)
	if me["role"] != "admin" {
		t.Errorf("first user should be admin, got %v", me["role"])
	}
	if _, leaked := me["passwordHash"]; leaked {
		t.Error("password hash must never serialize")
	}

	resp = doJSON(t, app, http.MethodGet, "/api/me", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/me without cookie: status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/me", nil, "bogus-session")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /api/me with bogus cookie: status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMentionNotificationOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	aliceCookie := registerAndLogin(t, app, "Alice", "alice@example.com", "")

	// Alice invites Bob, Bob joins.
	resp := doJSON(t, app, http.MethodPost, "/api/invitations", map[string]string{
		"email": "bob@example.com",
	}, aliceCookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/invitations: status %d", resp.StatusCode)
	}
	invitation := decodeBody(t, resp)
	token, _ := invitation["token"].(string)
	if token == "" {
		t.Fatal("invitation response missing token")
	}
	bobCookie := registerAndLogin(t, app, "Bob", "bob@example.com", token)

	// Alice posts with a mention marker for Bob.
	resp = doJSON(t, app, http.MethodPost, "/api/posts", map[string]interface{}{
		"title":   "welcome",
		"content": `hi <span data-lexical-mention-name="Bob">@Bob</span>`,
	}, aliceCookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/posts: status %d", resp.StatusCode)
	}
	post := decodeBody(t, resp)
	postID := post["id"].(float64)

	// Bob has exactly one unread mention referencing the post.
	resp = doJSON(t, app, http.MethodGet, "/api/notifications", nil, bobCookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/notifications: status %d", resp.StatusCode)
	}
	inbox := decodeBody(t, resp)
	if inbox["unreadCount"].(float64) != 1 {
		t.Fatalf("unreadCount = %v, want 1", inbox["unreadCount"])
	}
	entries := inbox["notifications"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	if entry["type"] != "mention" {
		t.Errorf("notification type = %v, want mention", entry["type"])
	}
	if entry["postId"].(float64) != postID {
		t.Errorf("notification references post %v, want %v", entry["postId"], postID)
	}

	// Marking it read drops the unread count to zero.
	resp = doJSON(t, app, http.MethodPatch, "/api/notifications", map[string]interface{}{
		"id": entry["id"],
	}, bobCookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH /api/notifications: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/notifications", nil, bobCookie)
	inbox = decodeBody(t, resp)
	if inbox["unreadCount"].(float64) != 0 {
		t.Errorf("unreadCount = %v after marking read, want 0", inbox["unreadCount"])
	}
}

func TestInvitationsRequireAdminOverHTTP(t *testing.T) {
	app, db := newTestApp(t)

	aliceCookie := registerAndLogin(t, app, "Alice", "alice@example.com", "")

	resp := doJSON(t, app, http.MethodPost, "/api/invitations", map[string]string{
		"email": "bob@example.com",
	}, aliceCookie)
	invitation := decodeBody(t, resp)
	bobCookie := registerAndLogin(t, app, "Bob", "bob@example.com", invitation["token"].(string))

	resp = doJSON(t, app, http.MethodGet, "/api/invitations", nil, bobCookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("member GET /api/invitations: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	var count int64
	if err := db.Table("invitations").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 invitation row, got %d", count)
	}
}

func TestFolderCycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerAndLogin(t, app, "Alice", "alice@example.com", "")

	resp := doJSON(t, app, http.MethodPost, "/api/folders", map[string]interface{}{"name": "a"}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/folders: status %d", resp.StatusCode)
	}
	a := decodeBody(t, resp)
	aID := a["id"].(float64)

	resp = doJSON(t, app, http.MethodPost, "/api/folders", map[string]interface{}{
		"name": "b", "parentId": aID,
	}, cookie)
	b := decodeBody(t, resp)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/folders/%.0f", aID), map[string]interface{}{
		"name": "a", "parentId": b["id"],
	}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("cycle-closing update: status %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] == nil {
		t.Error("error body should use the {error} shape")
	}
}

func TestThreadBadDateKeyOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	cookie := registerAndLogin(t, app, "Alice", "alice@example.com", "")

	resp := doJSON(t, app, http.MethodGet, "/api/files/thread?dateKey=not-a-date", nil, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed dateKey: status %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}
