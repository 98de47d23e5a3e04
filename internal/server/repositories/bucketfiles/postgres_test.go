package bucketfiles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+bucket_files\s*\(bucket_id,\s*file_id,\s*name\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`
	findQ   = `(?s)^SELECT\s+files\.id,\s*bucket_files\.name,\s*files\.extension\s+FROM\s+bucket_files\s+JOIN\s+files\s+ON\s+files\.id\s*=\s*bucket_files\.file_id\s+WHERE\s+bucket_files\.bucket_id\s*=\s*\$1\s+AND\s+bucket_files\.file_id\s*=\s*\$2\s+ORDER\s+BY\s+bucket_files\.id\s+LIMIT\s+1\s*$`
	deleteQ = `(?s)^DELETE\s+FROM\s+bucket_files\s+WHERE\s+bucket_id\s*=\s*\$1\s+AND\s+file_id\s*=\s*\$2\s*$`
	countQ  = `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+bucket_files\s+WHERE\s+file_id\s*=\s*\$1\s*$`
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	bf := &models.BucketFile{BucketID: uuid.New(), FileID: uuid.New(), Name: "photo"}
	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(bf.BucketID, bf.FileID, "photo").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	require.NoError(t, repo.Create(context.Background(), bf))
	assert.True(t, bf.CreatedAt.Equal(now))

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("fk violation"))
	err := repo.Create(context.Background(), bf)
	if err == nil || !regexp.MustCompile(`db error: .*fk violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindBinding_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	bucketID, fileID := uuid.New(), uuid.New()
	mock.ExpectQuery(findQ).
		WithArgs(bucketID, fileID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "extension"}).AddRow(fileID.String(), "photo", "png"))

	got, err := repo.FindBinding(context.Background(), bucketID, fileID)
	require.NoError(t, err)
	assert.Equal(t, &models.BoundBlob{FileID: fileID, Name: "photo", Extension: "png"}, got)
}

func TestFindBinding_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBinding(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteBindings(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	bucketID, fileID := uuid.New(), uuid.New()
	mock.ExpectExec(deleteQ).WithArgs(bucketID, fileID).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteBindings(context.Background(), bucketID, fileID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	mock.ExpectExec(deleteQ).WithArgs(bucketID, fileID).WillReturnError(errors.New("db down"))
	_, err = repo.DeleteBindings(context.Background(), bucketID, fileID)
	assert.Error(t, err)
}

func TestCountReferences(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	fileID := uuid.New()
	mock.ExpectQuery(countQ).WithArgs(fileID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountReferences(context.Background(), fileID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	mock.ExpectQuery(countQ).WithArgs(fileID).WillReturnError(errors.New("db down"))
	_, err = repo.CountReferences(context.Background(), fileID)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
