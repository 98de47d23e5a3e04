package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/dmitrijs2005/bucketstore/internal/server/blobstore"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContentStore keeps one copy of every distinct content. Metadata lives in
// the files table, bytes live in a blobstore.Store.
type ContentStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       *blobstore.Store
	log         logging.Logger
}

func NewContentStore(db *sql.DB, m repomanager.RepositoryManager, store *blobstore.Store, log logging.Logger) *ContentStore {
	return &ContentStore{db: db, repomanager: m, store: store, log: log.With("module", "content")}
}

// PendingBlob carries upload content through the metadata transaction.
type PendingBlob struct {
	data     []byte
	checksum string
	staged   *blobstore.Staged

	blob    *models.Blob
	created bool
}

func (p *PendingBlob) Checksum() string { return p.checksum }

// Prepare hashes data and stages its bytes unless the checksum is already
// known, in which case the filesystem is not touched.
func (c *ContentStore) Prepare(ctx context.Context, data []byte) (*PendingBlob, error) {
	p := &PendingBlob{data: data, checksum: blobstore.Checksum(data)}

	_, err := c.repomanager.Files(c.db).GetByChecksum(ctx, p.checksum)
	switch {
	case err == nil:
		return p, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, apperr.Repository("lookup checksum", err)
	}

	if p.staged, err = c.store.Stage(ctx, data); err != nil {
		return nil, apperr.Filesystem("stage blob", err)
	}
	return p, nil
}

// Save resolves p to a blob row inside tx, inserting one if none exists.
func (c *ContentStore) Save(ctx context.Context, tx dbx.DBTX, p *PendingBlob, ext string) (*models.Blob, error) {
	blob, created, err := c.repomanager.Files(tx).Upsert(ctx, p.checksum, ext)
	if err != nil {
		return nil, apperr.Repository("upsert blob", err)
	}
	p.blob, p.created = blob, created
	return blob, nil
}

// Commit makes the bytes of a newly created blob visible. It must run after
// the metadata transaction committed; for an existing blob it only drops
// the staged copy.
func (c *ContentStore) Commit(ctx context.Context, p *PendingBlob) error {
	if p.blob == nil || !p.created {
		c.Abort(ctx, p)
		return nil
	}

	if p.staged == nil {
		// the row vanished between Prepare and Save
		st, err := c.store.Stage(ctx, p.data)
		if err != nil {
			return apperr.Filesystem("stage blob", err)
		}
		p.staged = st
	}
	if err := p.staged.Promote(p.blob.ID, p.blob.Extension); err != nil {
		c.log.Error(ctx, "blob metadata committed without bytes", "file_id", p.blob.ID, "error", err)
		return apperr.Filesystem("promote blob", err)
	}

	c.log.Debug(ctx, "blob stored", "file_id", p.blob.ID, "size", len(p.data))
	return nil
}

// Abort drops the staged bytes, if any.
func (c *ContentStore) Abort(ctx context.Context, p *PendingBlob) {
	if err := p.staged.Discard(); err != nil {
		c.log.Warn(ctx, "discard staged blob", "checksum", p.checksum, "error", err)
	}
}

// Read opens the bytes of a blob known to the metadata store.
func (c *ContentStore) Read(ctx context.Context, id uuid.UUID, ext string) (*blobstore.Blob, error) {
	b, err := c.store.Open(id, ext)
	if err != nil {
		// missing bytes under live metadata: interrupted upload or manual damage
		return nil, apperr.Filesystem("open blob "+blobstore.Path(id, ext), err)
	}
	return b, nil
}

// Forget deletes the blob row inside tx. Bytes are removed by RemoveBytes
// once the transaction has committed.
func (c *ContentStore) Forget(ctx context.Context, tx dbx.DBTX, id uuid.UUID) error {
	if err := c.repomanager.Files(tx).Delete(ctx, id); err != nil {
		return apperr.Repository("delete blob", err)
	}
	return nil
}

// RemoveBytes deletes blob bytes. A failure is logged and not returned:
// the metadata deletion already decided the outcome.
func (c *ContentStore) RemoveBytes(ctx context.Context, id uuid.UUID, ext string) {
	if err := c.store.Remove(id, ext); err != nil {
		c.log.Error(ctx, "remove blob bytes", "error", apperr.Filesystem("remove blob", err), "file_id", id)
		return
	}
	c.log.Debug(ctx, "blob purged", "file_id", id)
}
