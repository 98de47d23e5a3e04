package models

import (
	"time"

	"github.com/google/uuid"
)

// Blob is one unique piece of content, stored in the files table.
// Checksum is unique across all buckets; Extension may be empty.
type Blob struct {
	ID        uuid.UUID
	Checksum  string
	Extension string
	CreatedAt time.Time
}

// BucketFile binds a blob into a bucket under a name. Every row counts as
// one reference to the blob.
type BucketFile struct {
	BucketID  uuid.UUID
	FileID    uuid.UUID
	Name      string
	CreatedAt time.Time
}

// BoundBlob is a blob as seen through one of a bucket's bindings.
type BoundBlob struct {
	FileID    uuid.UUID
	Name      string
	Extension string
}
