package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UploadService issues and redeems upload capability tokens. Tokens never
// expire and stay valid after use.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *UploadService {
	return &UploadService{db: db, repomanager: m, log: log.With("module", "uploads")}
}

func (s *UploadService) Issue(ctx context.Context, bucketID uuid.UUID) (uuid.UUID, error) {
	tok, err := s.repomanager.UploadTokens(s.db).Create(ctx, bucketID)
	if err != nil {
		return uuid.Nil, apperr.Repository("create upload token", err)
	}
	s.log.Info(ctx, "upload token issued", "bucket_id", bucketID, "upload_id", tok.ID)
	return tok.ID, nil
}

// Redeem returns the bucket a token uploads into.
func (s *UploadService) Redeem(ctx context.Context, tokenID uuid.UUID) (uuid.UUID, error) {
	tok, err := s.repomanager.UploadTokens(s.db).GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return uuid.Nil, apperr.ErrInvalidToken
		}
		return uuid.Nil, apperr.Repository("get upload token", err)
	}
	return tok.BucketID, nil
}
