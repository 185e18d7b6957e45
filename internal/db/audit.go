package db

import (
	"context"
	"time"

	"github.com/georgysavva/scany/pgxscan"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

const (
	auditTable       = "audit_entries"
	DefaultAuditList = 50
	MaxAuditList     = 500
)

type AuditService struct {
	db DBTX
}

func NewAuditService(db DBTX) *AuditService {
	return &AuditService{
		db,
	}
}

func insertAuditSQL(entry models.AuditEntry) (string, []interface{}, error) {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	return psql.
		Insert(auditTable).
		Columns("kind", "post_id", "operator", "at").
		Values(string(entry.Kind), entry.PostID, entry.Operator, at.UTC()).
		ToSql()
}

func listAuditSQL(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = DefaultAuditList
	}
	if limit > MaxAuditList {
		limit = MaxAuditList
	}
	return psql.
		Select("id", "kind", "post_id", "operator", "at").
		From(auditTable).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
}

func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) error {
	sql, args, err := insertAuditSQL(entry)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, sql, args...)
	return err
}

func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	sql, args, err := listAuditSQL(limit)
	if err != nil {
		return nil, err
	}
	entries := []models.AuditEntry{}
	err = pgxscan.Select(ctx, s.db, &entries, sql, args...)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
