package uploadtokens

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

func (r *PostgresRepository) Create(ctx context.Context, bucketID uuid.UUID) (*models.UploadToken, error) {
	query :=
		`INSERT INTO upload_keys (bucket_id)
		 VALUES ($1)
		 RETURNING id, created_at
		 `

	tok := &models.UploadToken{BucketID: bucketID}
	if err := r.db.QueryRowContext(ctx, query, bucketID).Scan(&tok.ID, &tok.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tok, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadToken, error) {
	query :=
		`SELECT id, bucket_id, created_at FROM upload_keys
		 WHERE id = $1
		 `

	tok := &models.UploadToken{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&tok.ID, &tok.BucketID, &tok.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tok, nil
}
