package files

import (
	"context"

	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

// Repository stores blob metadata in the files table.
type Repository interface {
	// GetByChecksum returns common.ErrorNotFound when no blob has checksum.
	GetByChecksum(ctx context.Context, checksum string) (*models.Blob, error)
	// Upsert inserts a blob for checksum or, if one exists, locks and returns
	// it. created reports which of the two happened.
	Upsert(ctx context.Context, checksum, ext string) (blob *models.Blob, created bool, err error)
	// LockByID takes a row lock on the blob for the rest of the transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Blob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
