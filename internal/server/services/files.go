package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/dmitrijs2005/bucketstore/internal/server/blobstore"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
)

// Download is an open blob together with the binding it was reached through.
type Download struct {
	*blobstore.Blob
	Name      string
	Extension string
}

// ContentType is the media type to announce, or "" for none.
func (d *Download) ContentType() string { return blobstore.ContentType(d.Extension) }

// FileService runs uploads, downloads and deletes for a resolved bucket.
type FileService struct {
	db      *sql.DB
	content *ContentStore
	ns      *Namespace
	log     logging.Logger
}

func NewFileService(db *sql.DB, content *ContentStore, ns *Namespace, log logging.Logger) *FileService {
	return &FileService{db: db, content: content, ns: ns, log: log.With("module", "files")}
}

// Upload stores data under filename in bucketID and returns the blob id.
// Identical content uploaded by any bucket resolves to the same id.
func (s *FileService) Upload(ctx context.Context, bucketID uuid.UUID, filename string, data []byte) (uuid.UUID, error) {
	name, ext := blobstore.SplitName(filename)

	p, err := s.content.Prepare(ctx, data)
	if err != nil {
		return uuid.Nil, err
	}

	var blob *models.Blob
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if blob, err = s.content.Save(ctx, tx, p, ext); err != nil {
			return err
		}
		_, err = s.ns.Bind(ctx, tx, bucketID, name, blob.ID)
		return err
	})
	if err != nil {
		s.content.Abort(ctx, p)
		return uuid.Nil, asUnexpected("upload", err)
	}

	if err := s.content.Commit(ctx, p); err != nil {
		return uuid.Nil, err
	}

	s.log.Info(ctx, "file uploaded", "bucket_id", bucketID, "file_id", blob.ID, "name", name, "checksum", p.Checksum(), "new_blob", p.created)
	return blob.ID, nil
}

// Open resolves fileID in bucketID and opens its bytes. The caller closes
// the returned Download.
func (s *FileService) Open(ctx context.Context, bucketID, fileID uuid.UUID) (*Download, error) {
	bound, err := s.ns.Resolve(ctx, bucketID, fileID)
	if err != nil {
		return nil, err
	}

	b, err := s.content.Read(ctx, bound.FileID, bound.Extension)
	if err != nil {
		return nil, err
	}

	return &Download{Blob: b, Name: bound.Name, Extension: bound.Extension}, nil
}

// Delete drops bucketID's bindings to fileID. When no bucket references
// the blob anymore its metadata and bytes are purged.
func (s *FileService) Delete(ctx context.Context, bucketID, fileID uuid.UUID) error {
	var purged *models.Blob
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		purged, err = s.ns.Unbind(ctx, tx, bucketID, fileID)
		return err
	})
	if err != nil {
		return asUnexpected("delete", err)
	}

	if purged != nil {
		s.content.RemoveBytes(ctx, purged.ID, purged.Extension)
	}

	s.log.Info(ctx, "file deleted", "bucket_id", bucketID, "file_id", fileID, "purged", purged != nil)
	return nil
}

// asUnexpected keeps apperr values and classifies anything else, such as a
// failed BEGIN or COMMIT, as a repository error.
func asUnexpected(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Repository(op, err)
}
