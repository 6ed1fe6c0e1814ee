package services

import (
	"encoding/json"
	"html"
	"log"
	"regexp"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"teamline/internal/models"
)

// mentionMarkerRe matches the display-name attribute the rich-text editor
// embeds for each @-mention.
var mentionMarkerRe = regexp.MustCompile(`data-lexical-mention-name="([^"]*)"`)

// ExtractMentionNames returns the distinct display names referenced by
// mention markers in the HTML content, in order of first appearance.
func ExtractMentionNames(content string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, m := range mentionMarkerRe.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(html.UnescapeString(m[1]))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ResolveMentions resolves the mention names in content against the user
// table by exact display-name match. Unmatched names are silently dropped.
// Resolution is by name, not id: renames change who future posts resolve to,
// and duplicate display names resolve to every holder.
func ResolveMentions(db *gorm.DB, content string) ([]uint, error) {
	names := ExtractMentionNames(content)
	if len(names) == 0 {
		return nil, nil
	}

	var ids []uint
	if err := db.Model(&models.User{}).
		Where("name IN ?", names).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SyncMentions replaces the post's mention set: delete-all then insert-all.
func SyncMentions(db *gorm.DB, postID uint, userIDs []uint) error {
	if err := db.Where("post_id = ?", postID).Delete(&models.PostMention{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	mentions := make([]models.PostMention, 0, len(userIDs))
	for _, id := range userIDs {
		mentions = append(mentions, models.PostMention{PostID: postID, UserID: id})
	}
	return db.Create(&mentions).Error
}

// NotifyMentions creates at most one mention notification per
// (recipient, post) pair. Errors are logged and swallowed: notification
// fan-out must never fail the post write it follows.
func NotifyMentions(db *gorm.DB, post *models.Post, actor models.User, userIDs []uint) {
	for _, id := range userIDs {
		if id == actor.ID {
			continue
		}

		var count int64
		if err := db.Model(&models.Notification{}).
			Where("recipient_id = ? AND post_id = ? AND type = ?", id, post.ID, models.NotificationMention).
			Count(&count).Error; err != nil {
			log.Printf("mention notification check failed for user %d post %d: %v", id, post.ID, err)
			continue
		}
		if count > 0 {
			continue
		}

		payload, _ := json.Marshal(map[string]string{
			"actorName": actor.Name,
			"postTitle": post.Title,
		})

		postID := post.ID
		n := models.Notification{
			Type:        models.NotificationMention,
			RecipientID: id,
			ActorID:     actor.ID,
			PostID:      &postID,
			Data:        datatypes.JSON(payload),
		}
		if err := db.Create(&n).Error; err != nil {
			log.Printf("mention notification create failed for user %d post %d: %v", id, post.ID, err)
		}
	}
}
