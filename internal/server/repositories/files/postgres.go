package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements blob metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(ext string) sql.NullString {
	return sql.NullString{String: ext, Valid: ext != ""}
}

func (r *PostgresRepository) GetByChecksum(ctx context.Context, checksum string) (*models.Blob, error) {
	query := `SELECT id, checksum, extension, created_at FROM files
		WHERE checksum = $1
		`

	return r.scanOne(r.db.QueryRowContext(ctx, query, checksum))
}

// Upsert inserts or row-locks the blob for checksum in one statement.
// xmax is zero only for a freshly inserted tuple.
func (r *PostgresRepository) Upsert(ctx context.Context, checksum, ext string) (*models.Blob, bool, error) {
	query := `INSERT INTO files (checksum, extension)
		VALUES ($1, $2)
		ON CONFLICT (checksum)
		DO UPDATE SET checksum = EXCLUDED.checksum
		RETURNING id, checksum, extension, created_at, (xmax = 0) AS created
		`

	var (
		b       models.Blob
		e       sql.NullString
		created bool
	)
	err := r.db.QueryRowContext(ctx, query, checksum, nullable(ext)).
		Scan(&b.ID, &b.Checksum, &e, &b.CreatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	b.Extension = e.String

	return &b, created, nil
}

func (r *PostgresRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Blob, error) {
	query := `SELECT id, checksum, extension, created_at FROM files
		WHERE id = $1
		FOR UPDATE
		`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM files WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Blob, error) {
	var (
		b models.Blob
		e sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Checksum, &e, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	b.Extension = e.String
	return &b, nil
}
