package uploadtokens

import (
	"context"

	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, bucketID uuid.UUID) (*models.UploadToken, error)
	// GetByID returns common.ErrorNotFound for an unknown token.
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadToken, error)
}
