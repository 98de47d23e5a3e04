package buckets

import (
	"context"

	"github.com/dmitrijs2005/bucketstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Bucket, error)
}
