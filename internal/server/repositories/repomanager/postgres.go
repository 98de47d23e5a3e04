// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// repository constructors and goose migrations together.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/server/migrations"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketfiles"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketkeys"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/buckets"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/uploadtokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Buckets(db dbx.DBTX) buckets.Repository {
	return buckets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) BucketKeys(db dbx.DBTX) bucketkeys.Repository {
	return bucketkeys.NewPostgresRepository(db)
}

// Files returns the blob metadata repository (files table).
func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) BucketFiles(db dbx.DBTX) bucketfiles.Repository {
	return bucketfiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) UploadTokens(db dbx.DBTX) uploadtokens.Repository {
	return uploadtokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(DriverName); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Open opens a pgx-backed pool and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
