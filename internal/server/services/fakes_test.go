package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/dbx"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/blobstore"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketfiles"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/bucketkeys"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/buckets"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/uploadtokens"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// memDB is an in-memory stand-in for the metadata tables. It ignores the
// DBTX it is handed, so rollback is not simulated.
type memDB struct {
	mu       sync.Mutex
	buckets  map[uuid.UUID]models.Bucket
	keys     map[uuid.UUID]models.BucketKey
	files    map[uuid.UUID]models.Blob
	bindings []models.BucketFile
	tokens   map[uuid.UUID]models.UploadToken

	// injected failures, keyed by operation name
	fail map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		buckets: map[uuid.UUID]models.Bucket{},
		keys:    map[uuid.UUID]models.BucketKey{},
		files:   map[uuid.UUID]models.Blob{},
		tokens:  map[uuid.UUID]models.UploadToken{},
		fail:    map[string]error{},
	}
}

func (m *memDB) err(op string) error { return m.fail[op] }

func (m *memDB) fileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type memBuckets struct{ *memDB }

func (r memBuckets) Create(_ context.Context, name string) (*models.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("buckets.Create"); err != nil {
		return nil, err
	}
	b := models.Bucket{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	r.buckets[b.ID] = b
	return &b, nil
}

type memKeys struct{ *memDB }

func (r memKeys) Create(_ context.Context, bucketID uuid.UUID, keyHash string) (*models.BucketKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("bucketkeys.Create"); err != nil {
		return nil, err
	}
	k := models.BucketKey{ID: uuid.New(), BucketID: bucketID, KeyHash: keyHash, CreatedAt: time.Now()}
	r.keys[k.ID] = k
	return &k, nil
}

func (r memKeys) GetByID(_ context.Context, id uuid.UUID) (*models.BucketKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("bucketkeys.GetByID"); err != nil {
		return nil, err
	}
	k, ok := r.keys[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &k, nil
}

type memFiles struct{ *memDB }

func (r memFiles) byChecksum(checksum string) (models.Blob, bool) {
	for _, b := range r.files {
		if b.Checksum == checksum {
			return b, true
		}
	}
	return models.Blob{}, false
}

func (r memFiles) GetByChecksum(_ context.Context, checksum string) (*models.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("files.GetByChecksum"); err != nil {
		return nil, err
	}
	b, ok := r.byChecksum(checksum)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r memFiles) Upsert(_ context.Context, checksum, ext string) (*models.Blob, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("files.Upsert"); err != nil {
		return nil, false, err
	}
	if b, ok := r.byChecksum(checksum); ok {
		return &b, false, nil
	}
	b := models.Blob{ID: uuid.New(), Checksum: checksum, Extension: ext, CreatedAt: time.Now()}
	r.files[b.ID] = b
	return &b, true, nil
}

func (r memFiles) LockByID(_ context.Context, id uuid.UUID) (*models.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("files.LockByID"); err != nil {
		return nil, err
	}
	b, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r memFiles) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.files, id)
	return nil
}

type memBindings struct{ *memDB }

func (r memBindings) Create(_ context.Context, bf *models.BucketFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("bucketfiles.Create"); err != nil {
		return err
	}
	bf.CreatedAt = time.Now()
	r.bindings = append(r.bindings, *bf)
	return nil
}

func (r memBindings) FindBinding(_ context.Context, bucketID, fileID uuid.UUID) (*models.BoundBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("bucketfiles.FindBinding"); err != nil {
		return nil, err
	}
	for _, bf := range r.bindings {
		if bf.BucketID == bucketID && bf.FileID == fileID {
			return &models.BoundBlob{FileID: fileID, Name: bf.Name, Extension: r.files[fileID].Extension}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memBindings) DeleteBindings(_ context.Context, bucketID, fileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.bindings[:0]
	var n int64
	for _, bf := range r.bindings {
		if bf.BucketID == bucketID && bf.FileID == fileID {
			n++
			continue
		}
		kept = append(kept, bf)
	}
	r.bindings = kept
	return n, nil
}

func (r memBindings) CountReferences(_ context.Context, fileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("bucketfiles.CountReferences"); err != nil {
		return 0, err
	}
	var n int64
	for _, bf := range r.bindings {
		if bf.FileID == fileID {
			n++
		}
	}
	return n, nil
}

type memTokens struct{ *memDB }

func (r memTokens) Create(_ context.Context, bucketID uuid.UUID) (*models.UploadToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("uploadtokens.Create"); err != nil {
		return nil, err
	}
	t := models.UploadToken{ID: uuid.New(), BucketID: bucketID, CreatedAt: time.Now()}
	r.tokens[t.ID] = t
	return &t, nil
}

func (r memTokens) GetByID(_ context.Context, id uuid.UUID) (*models.UploadToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err("uploadtokens.GetByID"); err != nil {
		return nil, err
	}
	t, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

type fakeRepoManager struct{ m *memDB }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (f *fakeRepoManager) Buckets(dbx.DBTX) buckets.Repository           { return memBuckets{f.m} }
func (f *fakeRepoManager) BucketKeys(dbx.DBTX) bucketkeys.Repository     { return memKeys{f.m} }
func (f *fakeRepoManager) Files(dbx.DBTX) files.Repository               { return memFiles{f.m} }
func (f *fakeRepoManager) BucketFiles(dbx.DBTX) bucketfiles.Repository   { return memBindings{f.m} }
func (f *fakeRepoManager) UploadTokens(dbx.DBTX) uploadtokens.Repository { return memTokens{f.m} }

// newTxDB returns a real *sql.DB used only for BEGIN/COMMIT plumbing.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMemFs(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/store", 0o750))
	return afero.NewBasePathFs(mem, "/store")
}

type fixture struct {
	db      *sql.DB
	mem     *memDB
	rm      *fakeRepoManager
	fs      afero.Fs
	content *ContentStore
	ns      *Namespace
	files   *FileService
	uploads *UploadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: newTxDB(t), mem: newMemDB(), fs: newMemFs(t)}
	f.rm = &fakeRepoManager{m: f.mem}
	log := logging.Discard()
	f.content = NewContentStore(f.db, f.rm, blobstore.New(f.fs), log)
	f.ns = NewNamespace(f.db, f.rm, f.content)
	f.files = NewFileService(f.db, f.content, f.ns, log)
	f.uploads = NewUploadService(f.db, f.rm, log)
	return f
}

// storedFiles lists the names in the store root.
func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	infos, err := afero.ReadDir(f.fs, ".")
	require.NoError(t, err)
	out := make([]string, 0, len(infos))
	for _, fi := range infos {
		out = append(out, fi.Name())
	}
	return out
}

var errDB = errors.New("connection reset by peer")
