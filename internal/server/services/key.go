// Package services contains the server's business logic: bucket key issuance
// and verification, content-addressed blob storage, bucket bindings and
// upload capability tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// secretSize is the number of random bytes in an issued secret.
const secretSize = 32

// Hasher produces and checks self-describing secret hashes.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}

// IssuedKey is returned once by Issue. Secret is not recoverable afterwards.
type IssuedKey struct {
	BucketID uuid.UUID
	KeyID    uuid.UUID
	Secret   string
}

// KeyService creates buckets with their first key and checks presented keys.
type KeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	log         logging.Logger
}

func NewKeyService(db *sql.DB, m repomanager.RepositoryManager, h Hasher, log logging.Logger) *KeyService {
	return &KeyService{db: db, repomanager: m, hasher: h, log: log.With("module", "keys")}
}

// Issue creates a new bucket and a key for it in one transaction.
func (s *KeyService) Issue(ctx context.Context) (*IssuedKey, error) {
	secret, err := common.MakeRandHexString(secretSize)
	if err != nil {
		return nil, apperr.Hashing("generate secret", err)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, apperr.Hashing("hash secret", err)
	}

	out := &IssuedKey{Secret: secret}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		bucket, err := s.repomanager.Buckets(tx).Create(ctx, common.DefaultBucketName)
		if err != nil {
			return apperr.Repository("create bucket", err)
		}
		key, err := s.repomanager.BucketKeys(tx).Create(ctx, bucket.ID, hash)
		if err != nil {
			return apperr.Repository("create bucket key", err)
		}
		out.BucketID, out.KeyID = bucket.ID, key.ID
		return nil
	})
	if err != nil {
		return nil, asUnexpected("issue key", err)
	}

	s.log.Info(ctx, "bucket key issued", "bucket_id", out.BucketID, "key_id", out.KeyID)
	return out, nil
}

// Verify returns the bucket of keyID when secret matches its stored hash.
func (s *KeyService) Verify(ctx context.Context, keyID uuid.UUID, secret string) (uuid.UUID, error) {
	key, err := s.repomanager.BucketKeys(s.db).GetByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return uuid.Nil, apperr.ErrUnknownKey
		}
		return uuid.Nil, apperr.Repository("get bucket key", err)
	}

	ok, err := s.hasher.Verify(secret, key.KeyHash)
	if err != nil {
		return uuid.Nil, apperr.Hashing(fmt.Sprintf("verify key %s", keyID), err)
	}
	if !ok {
		return uuid.Nil, apperr.ErrWrongSecret
	}

	return key.BucketID, nil
}
