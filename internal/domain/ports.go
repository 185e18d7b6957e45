package domain

import (
	"context"

	"gitlab.com/ranfdev/blogmod/internal/models"
)

// ContentAPI is the remote service owning posts, comments and reports.
type ContentAPI interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	SubmitReport(ctx context.Context, report models.NewReport) error
	DeletePost(ctx context.Context, postID int) error
	ClearReports(ctx context.Context, postID int) error
	CreatePost(ctx context.Context, post models.NewPost) (*models.Post, error)
	SubmitComment(ctx context.Context, comment models.NewComment) (*models.Comment, error)
}

// Auditor keeps a trail of moderation actions.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type nopAuditor struct{}

func (nopAuditor) Record(ctx context.Context, entry models.AuditEntry) error { return nil }
func (nopAuditor) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return []models.AuditEntry{}, nil
}

// NopAuditor discards every entry.
var NopAuditor Auditor = nopAuditor{}
