// Package errs classifies pipeline failures so the orchestrator and handlers
// can decide, per stage, whether a failure is fatal, recoverable, or a client
// problem.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks bad client input. No audit record is written.
	KindValidation
	// KindConfig marks invalid configuration, detected at load time.
	KindConfig
	// KindEmbedding marks an embedding service failure. Fatal per request.
	KindEmbedding
	// KindRetrieval marks a vector store failure. Fatal per request.
	KindRetrieval
	// KindGeneration marks an LLM failure. Recovered via the fallback composer.
	KindGeneration
	// KindNotFound marks an unknown feedback target.
	KindNotFound
	// KindPersistence marks an audit log write failure. Never blocks a response.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindEmbedding:
		return "embedding"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error without a cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies an underlying error. A nil cause returns nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
