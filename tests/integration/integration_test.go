package integration

import (
	"fmt"
	"testing"
	"time"

	"teamline/internal/config"
	"teamline/internal/database"
	"teamline/internal/models"
	"teamline/internal/services"
	"teamline/tests/helpers"
)

// TestServiceFlowAgainstMySQL runs the core write/read path against a real
// MySQL server: schema migration, capability detection, registration,
// mention fan-out and feed pagination.
func TestServiceFlowAgainstMySQL(t *testing.T) {
	helpers.SkipUnlessIntegration(t)

	container := helpers.StartMySQL(t)
	container.Configure(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("database.Connect failed: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	caps := database.DetectCapabilities(db)
	if !caps.Tags || !caps.Shares || !caps.Mentions || !caps.Attachments || !caps.Folders {
		t.Fatalf("migrated schema should detect every capability, got %+v", caps)
	}

	alice, err := services.Register(db, services.RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "password1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if alice.Role != models.RoleAdmin {
		t.Fatalf("first user role = %s, want admin", alice.Role)
	}

	inv, err := services.CreateInvitation(db, *alice, "bob@example.com", time.Hour)
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	bob, err := services.Register(db, services.RegisterInput{
		Name: "Bob", Email: "bob@example.com", Password: "password1", InviteToken: inv.Token,
	})
	if err != nil {
		t.Fatalf("invited Register failed: %v", err)
	}

	// A mention survives the round trip through real SQL.
	post, err := services.CreatePost(db, *alice, services.PostInput{
		Title:   "hello",
		Content: `hi <span data-lexical-mention-name="Bob">@Bob</span>`,
		Tags:    []string{"Intro"},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	inbox, err := services.ListNotifications(db, *bob)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if inbox.UnreadCount != 1 {
		t.Fatalf("unreadCount = %d, want 1", inbox.UnreadCount)
	}
	if inbox.Notifications[0].PostID == nil || *inbox.Notifications[0].PostID != post.ID {
		t.Errorf("notification should reference post %d", post.ID)
	}

	// Pagination against the real dialect.
	for i := 0; i < 30; i++ {
		if _, err := services.CreatePost(db, *alice, services.PostInput{
			Title:   fmt.Sprintf("bulk-%02d", i),
			Content: "filler",
		}); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	seen := make(map[uint]struct{})
	var cursor uint
	for {
		page, err := services.ListPosts(db, caps, *alice, services.FeedQuery{Cursor: cursor, Limit: 10})
		if err != nil {
			t.Fatalf("ListPosts failed: %v", err)
		}
		for _, p := range page.Posts {
			if _, dup := seen[p.ID]; dup {
				t.Fatalf("post %d returned twice", p.ID)
			}
			seen[p.ID] = struct{}{}
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	if len(seen) != 31 {
		t.Errorf("paged through %d posts, want 31", len(seen))
	}
}
