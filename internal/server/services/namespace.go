package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Namespace maintains bucket_files, the named bindings of blobs into
// buckets. The number of bindings to a blob is its reference count.
type Namespace struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	content     *ContentStore
}

func NewNamespace(db *sql.DB, m repomanager.RepositoryManager, content *ContentStore) *Namespace {
	return &Namespace{db: db, repomanager: m, content: content}
}

// Bind adds a binding. Binding the same blob again under the same bucket
// creates another row.
func (n *Namespace) Bind(ctx context.Context, tx dbx.DBTX, bucketID uuid.UUID, name string, blobID uuid.UUID) (*models.BucketFile, error) {
	bf := &models.BucketFile{BucketID: bucketID, FileID: blobID, Name: name}
	if err := n.repomanager.BucketFiles(tx).Create(ctx, bf); err != nil {
		return nil, apperr.Repository("create binding", err)
	}
	return bf, nil
}

// Resolve returns the blob behind bucketID's binding to blobID.
func (n *Namespace) Resolve(ctx context.Context, bucketID, blobID uuid.UUID) (*models.BoundBlob, error) {
	b, err := n.repomanager.BucketFiles(n.db).FindBinding(ctx, bucketID, blobID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.ErrBindingNotFound
		}
		return nil, apperr.Repository("find binding", err)
	}
	return b, nil
}

// Unbind removes bucketID's bindings to blobID inside tx. The blob row is
// locked first, so concurrent unbinds of the same blob are serialized and
// exactly one of them sees the count drop to zero. That one deletes the
// blob row and gets the blob back for byte removal after commit.
func (n *Namespace) Unbind(ctx context.Context, tx dbx.DBTX, bucketID, blobID uuid.UUID) (purged *models.Blob, err error) {
	blob, err := n.repomanager.Files(tx).LockByID(ctx, blobID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.ErrBindingNotFound
		}
		return nil, apperr.Repository("lock blob", err)
	}

	bindings := n.repomanager.BucketFiles(tx)
	removed, err := bindings.DeleteBindings(ctx, bucketID, blobID)
	if err != nil {
		return nil, apperr.Repository("delete bindings", err)
	}
	if removed == 0 {
		return nil, apperr.ErrBindingNotFound
	}

	left, err := bindings.CountReferences(ctx, blobID)
	if err != nil {
		return nil, apperr.Repository("count references", err)
	}
	if left > 0 {
		return nil, nil
	}

	if err := n.content.Forget(ctx, tx, blobID); err != nil {
		return nil, err
	}
	return blob, nil
}
