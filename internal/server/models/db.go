// Package models defines the rows persisted in the metadata database.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Bucket is a tenant namespace.
type Bucket struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// BucketKey is a credential for one bucket. KeyHash is an argon2id PHC
// string; the plain secret is never stored.
type BucketKey struct {
	ID        uuid.UUID
	BucketID  uuid.UUID
	KeyHash   string
	CreatedAt time.Time
}

// UploadToken lets anyone holding its id upload into BucketID.
// Tokens do not expire and may be used any number of times.
type UploadToken struct {
	ID        uuid.UUID
	BucketID  uuid.UUID
	CreatedAt time.Time
}
