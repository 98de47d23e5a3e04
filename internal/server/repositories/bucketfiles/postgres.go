package bucketfiles

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, bf *models.BucketFile) error {
	query :=
		`INSERT INTO bucket_files (bucket_id, file_id, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, bf.BucketID, bf.FileID, bf.Name).Scan(&bf.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindBinding(ctx context.Context, bucketID, fileID uuid.UUID) (*models.BoundBlob, error) {
	query :=
		`SELECT files.id, bucket_files.name, files.extension
		 FROM bucket_files
		 JOIN files ON files.id = bucket_files.file_id
		 WHERE bucket_files.bucket_id = $1 AND bucket_files.file_id = $2
		 ORDER BY bucket_files.id
		 LIMIT 1
		 `

	var (
		b   models.BoundBlob
		ext sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, bucketID, fileID).Scan(&b.FileID, &b.Name, &ext)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	b.Extension = ext.String

	return &b, nil
}

func (r *PostgresRepository) DeleteBindings(ctx context.Context, bucketID, fileID uuid.UUID) (int64, error) {
	query :=
		`DELETE FROM bucket_files
		 WHERE bucket_id = $1 AND file_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, bucketID, fileID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountReferences(ctx context.Context, fileID uuid.UUID) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM bucket_files
		 WHERE file_id = $1
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, fileID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
