package database

import (
	"log"

	"gorm.io/gorm"
)

// Capabilities records which optional relation tables are present. The feed
// assembler consults this once-per-process snapshot instead of retrying a
// reduced query on every failed read, so a partially migrated deployment
// degrades to the reduced projection without per-request try/catch.
type Capabilities struct {
	Tags        bool
	Shares      bool
	Mentions    bool
	Attachments bool
	Folders     bool
}

// FullRelations reports whether the full feed projection can be used.
func (c Capabilities) FullRelations() bool {
	return c.Tags && c.Shares && c.Mentions && c.Attachments && c.Folders
}

// DetectCapabilities probes the schema for the optional relation tables.
func DetectCapabilities(db *gorm.DB) Capabilities {
	m := db.Migrator()
	caps := Capabilities{
		Tags:        m.HasTable("tags") && m.HasTable("post_tags"),
		Shares:      m.HasTable("post_shares"),
		Mentions:    m.HasTable("post_mentions"),
		Attachments: m.HasTable("post_attachments"),
		Folders:     m.HasTable("folders"),
	}
	if !caps.FullRelations() {
		log.Printf("Schema capabilities reduced: %+v", caps)
	}
	return caps
}
