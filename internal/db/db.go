package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"gitlab.com/ranfdev/blogmod/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type SharedDB struct {
	db     *pgxpool.Pool
	config *models.EnvConfig
}

func Connect(ctx context.Context, config *models.EnvConfig) (*SharedDB, error) {
	pool, err := pgxpool.Connect(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to postgres: %w", err)
	}
	return &SharedDB{pool, config}, nil
}

func (sdb *SharedDB) Ping(ctx context.Context) error {
	return sdb.db.Ping(ctx)
}

func (sdb *SharedDB) Close() {
	sdb.db.Close()
}

// Audit returns the audit log stored in this database.
func (sdb *SharedDB) Audit() *AuditService {
	return NewAuditService(sdb.db)
}
