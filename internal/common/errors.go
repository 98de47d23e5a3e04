// Package common defines shared constants and sentinel errors used across
// bucketstore components. Callers should use errors.Is to match these values.
package common

import "errors"

// ErrorNotFound is returned by repositories when no row matches.
var ErrorNotFound = errors.New("not found")
