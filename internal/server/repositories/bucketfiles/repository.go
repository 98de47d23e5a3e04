package bucketfiles

import (
	"context"

	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

// Repository stores bucket_files rows, the bindings of blobs into buckets.
type Repository interface {
	Create(ctx context.Context, bf *models.BucketFile) error
	// FindBinding returns common.ErrorNotFound when bucketID holds no
	// binding to fileID.
	FindBinding(ctx context.Context, bucketID, fileID uuid.UUID) (*models.BoundBlob, error)
	// DeleteBindings removes every binding of fileID in bucketID and
	// returns how many rows went away.
	DeleteBindings(ctx context.Context, bucketID, fileID uuid.UUID) (int64, error)
	// CountReferences counts bindings to fileID across all buckets.
	CountReferences(ctx context.Context, fileID uuid.UUID) (int64, error)
}
