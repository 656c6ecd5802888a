package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that callers are expected to branch on.
type ErrorKind string

const (
	// KindUnreadableDocument means the uploaded bytes could not be parsed
	// as a PDF.
	KindUnreadableDocument ErrorKind = "unreadable_document"
	// KindEncodingUnavailable means the embedding backend failed or timed
	// out; the affected document is marked failed and nothing is committed.
	KindEncodingUnavailable ErrorKind = "encoding_unavailable"
	// KindSynthesisUnavailable means the answer backend failed or timed
	// out. Distinct from the empty-retrieval case, which is not an error.
	KindSynthesisUnavailable ErrorKind = "synthesis_unavailable"
)

// ErrNoDocuments is returned when an owner has no indexed documents.
var ErrNoDocuments = errors.New("no indexed documents")

// ErrUserExists is returned by UserStore.CreateUser on a duplicate username.
var ErrUserExists = errors.New("username already exists")

// ErrNotFound is returned when a document does not exist or is not visible
// to the requesting owner.
var ErrNotFound = errors.New("not found")

// Error wraps an underlying failure with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WrapError attaches a kind to err.
func WrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
