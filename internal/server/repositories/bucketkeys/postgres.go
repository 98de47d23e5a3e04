package bucketkeys

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

func (r *PostgresRepository) Create(ctx context.Context, bucketID uuid.UUID, keyHash string) (*models.BucketKey, error) {
	query :=
		`INSERT INTO bucket_keys (bucket_id, key_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	k := &models.BucketKey{BucketID: bucketID, KeyHash: keyHash}
	if err := r.db.QueryRowContext(ctx, query, bucketID, keyHash).Scan(&k.ID, &k.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return k, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BucketKey, error) {
	query :=
		`SELECT id, bucket_id, key_hash, created_at FROM bucket_keys
		 WHERE id = $1
		 `

	k := &models.BucketKey{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&k.ID, &k.BucketID, &k.KeyHash, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return k, nil
}
