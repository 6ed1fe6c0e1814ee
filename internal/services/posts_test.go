package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"teamline/internal/models"
)

func mentionMarkup(name string) string {
	return fmt.Sprintf(`<span data-lexical-mention-name=%q>@%s</span>`, name, name)
}

func TestTagNormalizationIdempotence(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "alice", models.RoleMember)

	post, err := CreatePost(db, user, PostInput{
		Title:   "tags",
		Content: "body",
		Tags:    []string{" GoLang ", "GOLANG", "golang"},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	var tagCount int64
	if err := db.Model(&models.Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if tagCount != 1 {
		t.Fatalf("expected one tag row, got %d", tagCount)
	}

	var tag models.Tag
	if err := db.First(&tag).Error; err != nil {
		t.Fatalf("load tag failed: %v", err)
	}
	if tag.Name != "golang" {
		t.Errorf("tag name = %q, want %q", tag.Name, "golang")
	}

	// Re-editing with a different casing must reuse the same row.
	if _, err := UpdatePost(db, user, post.ID, PostInput{
		Title:   "tags",
		Content: "body",
		Tags:    []string{"GoLaNg"},
	}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if err := db.Model(&models.Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if tagCount != 1 {
		t.Errorf("edit created a duplicate tag row, count %d", tagCount)
	}
}

func TestMentionIdempotence(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "Bob", models.RoleMember)

	content := "hello " + mentionMarkup("Bob")
	post, err := CreatePost(db, alice, PostInput{Title: "hi", Content: content})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	// Two identical edits must not multiply mention rows or notifications.
	for i := 0; i < 2; i++ {
		if _, err := UpdatePost(db, alice, post.ID, PostInput{Title: "hi", Content: content}); err != nil {
			t.Fatalf("UpdatePost failed: %v", err)
		}
	}

	var mentionCount int64
	if err := db.Model(&models.PostMention{}).
		Where("post_id = ? AND user_id = ?", post.ID, bob.ID).
		Count(&mentionCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if mentionCount != 1 {
		t.Errorf("expected exactly one mention row, got %d", mentionCount)
	}

	var notificationCount int64
	if err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND post_id = ? AND type = ?", bob.ID, post.ID, models.NotificationMention).
		Count(&notificationCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if notificationCount != 1 {
		t.Errorf("expected exactly one notification, got %d", notificationCount)
	}
}

func TestSelfMentionSkipsNotification(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "Alice", models.RoleMember)

	post, err := CreatePost(db, alice, PostInput{Title: "self", Content: mentionMarkup("Alice")})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	var mentionCount int64
	if err := db.Model(&models.PostMention{}).Where("post_id = ?", post.ID).Count(&mentionCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if mentionCount != 1 {
		t.Errorf("self-mention should still record a mention row, got %d", mentionCount)
	}

	var notificationCount int64
	if err := db.Model(&models.Notification{}).Count(&notificationCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if notificationCount != 0 {
		t.Errorf("self-mention must not notify, got %d notifications", notificationCount)
	}
}

func TestUpdatePostPermissions(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)
	admin := createUser(t, db, "root", models.RoleAdmin)

	post, err := CreatePost(db, alice, PostInput{Title: "t", Content: "original"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := UpdatePost(db, bob, post.ID, PostInput{Title: "t", Content: "hijack"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author edit should be forbidden, got %v", err)
	}
	if _, err := UpdatePost(db, admin, post.ID, PostInput{Title: "t", Content: "moderated"}); err != nil {
		t.Errorf("admin edit should succeed, got %v", err)
	}
}

func TestHistorySnapshotAndRestore(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "alice", models.RoleMember)

	post, err := CreatePost(db, user, PostInput{Title: "v1", Content: "first"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := UpdatePost(db, user, post.ID, PostInput{Title: "v2", Content: "second"}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	history, err := ListPostHistory(db, user, post.ID)
	if err != nil {
		t.Fatalf("ListPostHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one revision, got %d", len(history))
	}
	if history[0].Title != "v1" || history[0].Content != "first" {
		t.Errorf("snapshot should hold the pre-edit state, got %q/%q", history[0].Title, history[0].Content)
	}

	restored, err := RestorePost(db, user, post.ID, history[0].ID)
	if err != nil {
		t.Fatalf("RestorePost failed: %v", err)
	}
	if restored.Title != "v1" || restored.Content != "first" {
		t.Errorf("restore should apply the revision, got %q/%q", restored.Title, restored.Content)
	}

	// Restore snapshots the replaced state, so it is itself undoable.
	history, err = ListPostHistory(db, user, post.ID)
	if err != nil {
		t.Fatalf("ListPostHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected two revisions after restore, got %d", len(history))
	}
}

func TestDeletePostRemovesDependents(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "Bob", models.RoleMember)

	file := createMediaFile(t, db, alice, "pic.png", time.Time{})
	post, err := CreatePost(db, alice, PostInput{
		Title:         "full",
		Content:       mentionMarkup("Bob"),
		Tags:          []string{"keep"},
		AttachmentIDs: []uint{file.ID},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := SharePost(db, alice, post.ID, []uint{bob.ID}); err != nil {
		t.Fatalf("SharePost failed: %v", err)
	}
	if _, err := CreateComment(db, bob, post.ID, "nice"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := DeletePost(db, alice, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	for name, model := range map[string]interface{}{
		"mentions":    &models.PostMention{},
		"shares":      &models.PostShare{},
		"attachments": &models.PostAttachment{},
		"comments":    &models.Comment{},
	} {
		var count int64
		if err := db.Model(model).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
			t.Fatalf("count %s failed: %v", name, err)
		}
		if count != 0 {
			t.Errorf("%s not cleaned up, %d rows remain", name, count)
		}
	}

	// The tag itself survives for other posts.
	var tagCount int64
	if err := db.Model(&models.Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("count tags failed: %v", err)
	}
	if tagCount != 1 {
		t.Errorf("tag rows should survive post deletion, got %d", tagCount)
	}
}

func TestGetPostDetailVisibility(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)

	post, err := CreatePost(db, alice, PostInput{Title: "t", Content: "body"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := GetPostDetail(db, fullCaps(), bob, post.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("unshared post should be forbidden, got %v", err)
	}

	if _, err := SharePost(db, alice, post.ID, []uint{bob.ID}); err != nil {
		t.Fatalf("SharePost failed: %v", err)
	}
	detail, err := GetPostDetail(db, fullCaps(), bob, post.ID)
	if err != nil {
		t.Fatalf("GetPostDetail failed: %v", err)
	}
	if detail.ID != post.ID {
		t.Errorf("detail returned wrong post %d", detail.ID)
	}
	if detail.Comments == nil {
		t.Errorf("comments must serialize as an empty slice")
	}
}
