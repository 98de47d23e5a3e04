package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketfiles"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketkeys"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/buckets"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/uploadtokens"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Buckets(db dbx.DBTX) buckets.Repository
	BucketKeys(db dbx.DBTX) bucketkeys.Repository
	Files(db dbx.DBTX) files.Repository
	BucketFiles(db dbx.DBTX) bucketfiles.Repository
	UploadTokens(db dbx.DBTX) uploadtokens.Repository
}
