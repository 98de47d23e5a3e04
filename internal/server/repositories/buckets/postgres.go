package buckets

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, name string) (*models.Bucket, error) {
	query :=
		`INSERT INTO buckets (name)
		 VALUES ($1)
		 RETURNING id, created_at
		 `

	b := &models.Bucket{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}
