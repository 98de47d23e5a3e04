// Package cryptox hashes and verifies bucket key secrets with argon2id.
//
// Hashes are stored in the PHC string format so that every stored value
// carries its own salt and cost parameters:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"golang.org/x/crypto/argon2"
)

var (
	ErrMalformedHash       = errors.New("malformed argon2 hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

const algorithm = "argon2id"

// Upper bounds accepted from a stored hash.
const (
	maxMemory = 1 << 20 // KiB
	maxTime   = 16
)

var b64 = base64.RawStdEncoding

// Argon2Hasher holds the cost parameters used for new hashes.
// Verification always uses the parameters embedded in the stored hash.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Hash derives a salted argon2id hash of secret. Two calls with the same
// secret produce different strings.
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt, err := common.RandomBytes(h.SaltLen)
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	pw := []byte(secret)
	defer common.WipeByteArray(pw)

	key := argon2.IDKey(pw, salt, h.Time, h.Memory, h.Threads, h.KeyLen)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version, h.Memory, h.Time, h.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether secret matches encoded. A false result with a nil
// error is a plain mismatch; an error means encoded could not be used.
func (h *Argon2Hasher) Verify(secret, encoded string) (bool, error) {
	p, err := parse(encoded)
	if err != nil {
		return false, err
	}

	pw := []byte(secret)
	defer common.WipeByteArray(pw)

	key := argon2.IDKey(pw, p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parse(encoded string) (*params, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithm {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}

	p := &params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}
	if p.time == 0 || p.threads == 0 {
		return nil, fmt.Errorf("%w: zero cost parameter", ErrMalformedHash)
	}
	if p.memory > maxMemory || p.time > maxTime {
		return nil, fmt.Errorf("%w: cost m=%d,t=%d out of range", ErrMalformedHash, p.memory, p.time)
	}

	var err error
	if p.salt, err = b64.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if p.key, err = b64.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}
	if len(p.key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedHash)
	}

	return p, nil
}
