package services

import (
	"reflect"
	"testing"

	"teamline/internal/models"
)

func TestExtractMentionNames(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single marker",
			content: `<span data-lexical-mention-name="Bob">@Bob</span>`,
			want:    []string{"Bob"},
		},
		{
			name: "duplicates collapse",
			content: `<span data-lexical-mention-name="Bob">@Bob</span>` +
				`<span data-lexical-mention-name="Bob">@Bob</span>`,
			want: []string{"Bob"},
		},
		{
			name:    "entities unescape",
			content: `<span data-lexical-mention-name="A &amp; B">@A</span>`,
			want:    []string{"A & B"},
		},
		{
			name:    "no markers",
			content: "plain text with @Bob written by hand",
			want:    nil,
		},
		{
			name:    "empty name skipped",
			content: `<span data-lexical-mention-name="">@</span>`,
			want:    nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractMentionNames(tc.content)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractMentionNames(%q) = %v, want %v", tc.content, got, tc.want)
			}
		})
	}
}

func TestResolveMentionsExactNameOnly(t *testing.T) {
	db := openTestDB(t)
	bob := createUser(t, db, "Bob", models.RoleMember)
	createUser(t, db, "Bobby", models.RoleMember)

	ids, err := ResolveMentions(db, `<span data-lexical-mention-name="Bob">@Bob</span>`)
	if err != nil {
		t.Fatalf("ResolveMentions failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != bob.ID {
		t.Errorf("expected exact-name match on Bob only, got %v", ids)
	}

	ids, err = ResolveMentions(db, `<span data-lexical-mention-name="Nobody">@Nobody</span>`)
	if err != nil {
		t.Fatalf("ResolveMentions failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("unknown names must resolve to nothing, got %v", ids)
	}
}
