package models

import "time"

type AuditKind string

const (
	AuditDeletePost   AuditKind = "delete_post"
	AuditClearReports AuditKind = "clear_reports"
	AuditCreatePost   AuditKind = "create_post"
)

type AuditEntry struct {
	ID       int
	Kind     AuditKind
	PostID   int    `db:"post_id"`
	Operator string
	At       time.Time
}
