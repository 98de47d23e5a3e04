package bucketkeys

import (
	"context"

	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, bucketID uuid.UUID, keyHash string) (*models.BucketKey, error)
	// GetByID returns common.ErrorNotFound for an unknown key id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.BucketKey, error)
}
