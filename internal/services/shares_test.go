package services

import (
	"errors"
	"testing"
	"time"

	"teamline/internal/models"
)

func TestSharePostSkipsSelfAndUnknownTargets(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)
	post := createPost(t, db, alice, "p", time.Time{})

	shares, err := SharePost(db, alice, post.ID, []uint{alice.ID, bob.ID, bob.ID, 9999})
	if err != nil {
		t.Fatalf("SharePost failed: %v", err)
	}
	if len(shares) != 1 || shares[0].UserID != bob.ID {
		t.Fatalf("expected a single grant for bob, got %d", len(shares))
	}

	// Re-sharing the same target is a no-op upsert.
	if _, err := SharePost(db, alice, post.ID, []uint{bob.ID}); err != nil {
		t.Fatalf("SharePost failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.PostShare{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one share row, got %d", count)
	}
}

func TestSharePostPermissions(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)
	carol := createUser(t, db, "carol", models.RoleMember)
	admin := createUser(t, db, "root", models.RoleAdmin)
	post := createPost(t, db, alice, "p", time.Time{})

	if _, err := SharePost(db, bob, post.ID, []uint{carol.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author share should be forbidden, got %v", err)
	}
	if _, err := SharePost(db, admin, post.ID, []uint{carol.ID}); err != nil {
		t.Errorf("admin share should succeed, got %v", err)
	}
	if _, err := ListPostShares(db, bob, post.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author listing should be forbidden, got %v", err)
	}
}

func TestDeletePostShareMissingGrant(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)
	post := createPost(t, db, alice, "p", time.Time{})

	if err := DeletePostShare(db, alice, post.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoking a missing grant should be not found, got %v", err)
	}

	if _, err := SharePost(db, alice, post.ID, []uint{bob.ID}); err != nil {
		t.Fatalf("SharePost failed: %v", err)
	}
	if err := DeletePostShare(db, alice, post.ID, bob.ID); err != nil {
		t.Fatalf("DeletePostShare failed: %v", err)
	}
	if err := DeletePostShare(db, alice, post.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second revoke should be not found, got %v", err)
	}
}

func TestMediaShareLifecycle(t *testing.T) {
	db := openTestDB(t)
	alice := createUser(t, db, "alice", models.RoleMember)
	bob := createUser(t, db, "bob", models.RoleMember)
	file := createMediaFile(t, db, alice, "f.txt", time.Time{})

	shares, err := ShareMedia(db, alice, file.ID, []uint{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("ShareMedia failed: %v", err)
	}
	if len(shares) != 1 || shares[0].UserID != bob.ID {
		t.Fatalf("expected a single grant for bob, got %d", len(shares))
	}

	if _, err := ShareMedia(db, bob, file.ID, []uint{bob.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-uploader share should be forbidden, got %v", err)
	}

	if err := DeleteMediaShare(db, alice, file.ID, bob.ID); err != nil {
		t.Fatalf("DeleteMediaShare failed: %v", err)
	}
	if err := DeleteMediaShare(db, alice, file.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoking a missing grant should be not found, got %v", err)
	}
}
