// Package apperr is the error taxonomy of the server.
//
// Expected errors are caused by the client: they carry an HTTP status and a
// message that is safe to show. Every other error, including the
// Repository, Filesystem and Hashing kinds below, is Unexpected and is
// reported to the caller only as a generic internal error.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindMissingHeader     Kind = "missing_header"
	KindUnsupportedScheme Kind = "unsupported_scheme"
	KindMalformedEncoding Kind = "malformed_encoding"
	KindMissingDelimiter  Kind = "missing_delimiter"
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindUnknownKey        Kind = "unknown_key"
	KindWrongSecret       Kind = "wrong_secret"
	KindInvalidToken      Kind = "invalid_token"
	KindBindingNotFound   Kind = "binding_not_found"
	KindMalformedUpload   Kind = "malformed_upload"

	KindRepository Kind = "repository"
	KindFilesystem Kind = "filesystem"
	KindHashing    Kind = "hashing"
)

// UnexpectedMessage is the only text a caller sees for an internal failure.
const UnexpectedMessage = "Unexpected server error"

type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Expected reports whether the error is a client error.
func (e *Error) Expected() bool {
	switch e.Kind {
	case KindRepository, KindFilesystem, KindHashing:
		return false
	}
	return true
}

// WithStatus returns a copy of e answering with status instead.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

func expected(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Status: http.StatusBadRequest, Message: msg}
}

var (
	ErrMissingHeader     = expected(KindMissingHeader, "`Authorization` header is missing")
	ErrUnsupportedScheme = expected(KindUnsupportedScheme, "`Authorization` header must be for basic authentication")
	ErrMalformedEncoding = expected(KindMalformedEncoding, "Unprocessable base64")
	ErrMissingDelimiter  = expected(KindMissingDelimiter, "Missing `:` delimiter")
	ErrInvalidIdentifier = expected(KindInvalidIdentifier, "Key id is not of a type UUID")
	ErrUnknownKey        = expected(KindUnknownKey, "Failed to verify credentials: invalid key_id")
	ErrWrongSecret       = expected(KindWrongSecret, "Failed to verify credentials: incorrect key")
	ErrInvalidToken      = expected(KindInvalidToken, "Upload key is not valid")
	ErrBindingNotFound   = expected(KindBindingNotFound, "File not found")
	ErrMalformedUpload   = expected(KindMalformedUpload, "Unprocessable multipart body")
)

// MalformedCharacters is the MalformedEncoding variant for a payload that is
// valid base64 but not UTF-8.
func MalformedCharacters() *Error {
	return expected(KindMalformedEncoding, "Unprocessable characters")
}

// InvalidID is the InvalidIdentifier variant for a path parameter.
func InvalidID(param string) *Error {
	return expected(KindInvalidIdentifier, "`"+param+"` is not of a type UUID")
}

func unexpected(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Status: http.StatusInternalServerError, Message: msg, cause: cause}
}

func Repository(msg string, cause error) *Error { return unexpected(KindRepository, msg, cause) }
func Filesystem(msg string, cause error) *Error { return unexpected(KindFilesystem, msg, cause) }
func Hashing(msg string, cause error) *Error    { return unexpected(KindHashing, msg, cause) }

// Sentinels for matching the unexpected kinds with errors.Is.
var (
	ErrRepository = &Error{Kind: KindRepository}
	ErrFilesystem = &Error{Kind: KindFilesystem}
	ErrHashing    = &Error{Kind: KindHashing}
)

// IsExpected reports whether err carries an Expected *Error.
func IsExpected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Expected()
}

// Resolve maps err to the status and message sent to the caller.
func Resolve(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) && e.Expected() {
		return e.Status, e.Message
	}
	return http.StatusInternalServerError, UnexpectedMessage
}
