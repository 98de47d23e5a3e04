// Package auth resolves the Authorization header of a request to the bucket
// it is allowed to act on.
package auth

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/google/uuid"
)

// Credentials is a decoded Basic credential pair.
type Credentials struct {
	KeyID  uuid.UUID
	Secret string
}

// ParseBasic decodes "Basic base64(key_id:secret)". The scheme label is
// matched exactly. The secret is everything after the first ':'.
func ParseBasic(header string) (Credentials, error) {
	if header == "" {
		return Credentials{}, apperr.ErrMissingHeader
	}

	scheme, payload, ok := strings.Cut(header, " ")
	if !ok || scheme != common.BasicScheme {
		return Credentials{}, apperr.ErrUnsupportedScheme
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Credentials{}, apperr.ErrMalformedEncoding
	}
	if !utf8.Valid(raw) {
		return Credentials{}, apperr.MalformedCharacters()
	}

	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Credentials{}, apperr.ErrMissingDelimiter
	}

	keyID, err := uuid.Parse(id)
	if err != nil {
		return Credentials{}, apperr.ErrInvalidIdentifier
	}

	return Credentials{KeyID: keyID, Secret: secret}, nil
}

// KeyVerifier checks a secret against the stored key and returns its bucket.
type KeyVerifier interface {
	Verify(ctx context.Context, keyID uuid.UUID, secret string) (uuid.UUID, error)
}

// Gate turns an Authorization header into a bucket id.
type Gate struct {
	verifier KeyVerifier
}

func NewGate(v KeyVerifier) *Gate {
	return &Gate{verifier: v}
}

// Authenticate runs header parsing and key verification. Errors are
// apperr values; verification errors are passed through unchanged.
func (g *Gate) Authenticate(ctx context.Context, header string) (uuid.UUID, error) {
	creds, err := ParseBasic(header)
	if err != nil {
		return uuid.Nil, err
	}
	return g.verifier.Verify(ctx, creds.KeyID, creds.Secret)
}
