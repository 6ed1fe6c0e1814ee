package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"teamline/internal/models"
	"teamline/internal/storage"
)

// DateKeyLayout is the calendar-date grouping key format, evaluated in local
// time rather than UTC.
const DateKeyLayout = "2006-01-02"

// Thread activity item types.
const (
	ActivityFileGroup = "file-group"
	ActivityComment   = "comment"
)

// ThreadFile is a media file as it appears in a thread: with its resolved
// URL and, when the file is attached to a post, a denormalized pointer to
// the first such post.
type ThreadFile struct {
	models.MediaFile
	URL  string      `json:"url"`
	Post *ThreadPost `json:"post,omitempty"`
}

// ThreadPost is the denormalized post pointer carried by a thread file.
type ThreadPost struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ThreadActivity is one merged activity item: either a group of files or a
// single comment, stamped with the time used for the final sort.
type ThreadActivity struct {
	Type      string                    `json:"type"`
	Timestamp time.Time                 `json:"timestamp"`
	DateKey   string                    `json:"dateKey,omitempty"`
	Files     []ThreadFile              `json:"files,omitempty"`
	Comment   *models.FileThreadComment `json:"comment,omitempty"`
}

// ThreadResult is the aggregated activity for one calendar date.
type ThreadResult struct {
	DateKey      string           `json:"dateKey"`
	Activities   []ThreadActivity `json:"activities"`
	FileCount    int              `json:"fileCount"`
	CommentCount int              `json:"commentCount"`
}

// GetFileThread merges three sources for the requesting user's date: files
// created that day, files explicitly associated with the day across date
// boundaries, and comments posted to the day. Native files collapse into one
// file-group stamped with the earliest upload; cross-date files group by each
// file's own creation date stamped with the association time; every comment
// is its own item. The merged list is sorted ascending by stamp.
func GetFileThread(db *gorm.DB, store storage.Store, user models.User, dateKey string) (*ThreadResult, error) {
	start, err := ParseDateKey(dateKey)
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 0, 1)

	var native []models.MediaFile
	if err := db.Preload("User").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, start, end).
		Order("created_at ASC, id ASC").
		Find(&native).Error; err != nil {
		return nil, err
	}

	nativeIDs := make(map[uint]struct{}, len(native))
	for _, f := range native {
		nativeIDs[f.ID] = struct{}{}
	}

	// Cross-date associations for this key, excluding files already counted
	// as native so a same-day association never double-counts.
	var entries []models.FileThreadEntry
	if err := db.Preload("MediaFile.User").
		Joins("JOIN media_files ON media_files.id = file_thread_entries.media_file_id").
		Where("file_thread_entries.date_key = ? AND media_files.user_id = ?", dateKey, user.ID).
		Order("file_thread_entries.created_at ASC, file_thread_entries.id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	var comments []models.FileThreadComment
	if err := db.Preload("User").
		Where("date_key = ? AND user_id = ?", dateKey, user.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	fileIDs := make([]uint, 0, len(native)+len(entries))
	for _, f := range native {
		fileIDs = append(fileIDs, f.ID)
	}
	for _, e := range entries {
		if _, isNative := nativeIDs[e.MediaFileID]; !isNative {
			fileIDs = append(fileIDs, e.MediaFileID)
		}
	}
	postRefs, err := attachmentPostRefs(db, fileIDs)
	if err != nil {
		return nil, err
	}

	activities := make([]ThreadActivity, 0, len(entries)+len(comments)+1)
	fileCount := 0

	if len(native) > 0 {
		files := make([]ThreadFile, 0, len(native))
		for _, f := range native {
			files = append(files, threadFile(store, f, postRefs))
		}
		fileCount += len(files)
		activities = append(activities, ThreadActivity{
			Type:      ActivityFileGroup,
			Timestamp: native[0].CreatedAt,
			DateKey:   dateKey,
			Files:     files,
		})
	}

	// Cross-date files group by each file's own creation date, so one thread
	// page can show groups labeled with other days. The group is stamped with
	// the earliest association time, not the files' creation times.
	groupOrder := make([]string, 0)
	groups := make(map[string]*ThreadActivity)
	for _, e := range entries {
		if _, isNative := nativeIDs[e.MediaFileID]; isNative {
			continue
		}
		key := e.MediaFile.CreatedAt.Format(DateKeyLayout)
		group, ok := groups[key]
		if !ok {
			group = &ThreadActivity{
				Type:      ActivityFileGroup,
				Timestamp: e.CreatedAt,
				DateKey:   key,
			}
			groups[key] = group
			groupOrder = append(groupOrder, key)
		}
		if e.CreatedAt.Before(group.Timestamp) {
			group.Timestamp = e.CreatedAt
		}
		group.Files = append(group.Files, threadFile(store, e.MediaFile, postRefs))
		fileCount++
	}
	for _, key := range groupOrder {
		activities = append(activities, *groups[key])
	}

	for i := range comments {
		comment := comments[i]
		activities = append(activities, ThreadActivity{
			Type:      ActivityComment,
			Timestamp: comment.CreatedAt,
			DateKey:   dateKey,
			Comment:   &comment,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.Before(activities[j].Timestamp)
	})

	return &ThreadResult{
		DateKey:      dateKey,
		Activities:   activities,
		FileCount:    fileCount,
		CommentCount: len(comments),
	}, nil
}

// AttachFileToDate associates a file with a calendar date other than its
// creation day. Re-attaching the same pair is a no-op.
func AttachFileToDate(db *gorm.DB, user models.User, fileID uint, dateKey string) (*models.FileThreadEntry, error) {
	if _, err := ParseDateKey(dateKey); err != nil {
		return nil, err
	}

	var file models.MediaFile
	if err := db.First(&file, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if file.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	entry := models.FileThreadEntry{DateKey: dateKey, MediaFileID: file.ID}
	if err := db.Where("date_key = ? AND media_file_id = ?", dateKey, file.ID).
		FirstOrCreate(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ParseDateKey validates and parses a YYYY-MM-DD key in local time.
func ParseDateKey(dateKey string) (time.Time, error) {
	if len(dateKey) != len(DateKeyLayout) {
		return time.Time{}, fmt.Errorf("%w: malformed dateKey %q", ErrInvalidInput, dateKey)
	}
	t, err := time.ParseInLocation(DateKeyLayout, dateKey, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed dateKey %q", ErrInvalidInput, dateKey)
	}
	return t, nil
}

func threadFile(store storage.Store, f models.MediaFile, postRefs map[uint]*ThreadPost) ThreadFile {
	return ThreadFile{
		MediaFile: f,
		URL:       ResolveFileURL(store, &f),
		Post:      postRefs[f.ID],
	}
}

// attachmentPostRefs maps each file id to the post of its first attachment,
// when one exists.
func attachmentPostRefs(db *gorm.DB, fileIDs []uint) (map[uint]*ThreadPost, error) {
	refs := make(map[uint]*ThreadPost)
	if len(fileIDs) == 0 {
		return refs, nil
	}

	var attachments []models.PostAttachment
	if err := db.Preload("MediaFile").
		Where("media_file_id IN ?", fileIDs).
		Order("id ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return refs, nil
	}

	postIDs := make([]uint, 0, len(attachments))
	for _, a := range attachments {
		postIDs = append(postIDs, a.PostID)
	}
	var posts []models.Post
	if err := db.Where("id IN ?", postIDs).Find(&posts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	for _, a := range attachments {
		if _, seen := refs[a.MediaFileID]; seen {
			continue
		}
		p, ok := byID[a.PostID]
		if !ok {
			continue
		}
		refs[a.MediaFileID] = &ThreadPost{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		}
	}
	return refs, nil
}
