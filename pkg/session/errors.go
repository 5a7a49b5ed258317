package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

var (
	// ErrConfig marks construction-time misconfiguration. It is never returned
	// while serving a request.
	ErrConfig = errors.New("session.config")

	// ErrNoStore indicates no store was supplied
	ErrNoStore = errors.New("session.no_store")

	// ErrSessionMissing indicates the session middleware did not run for the request
	ErrSessionMissing = errors.New("session.missing")

	// ErrSessionFinalized indicates a state was handed to Finalize twice
	ErrSessionFinalized = errors.New("session.already_finalized")

	// ErrIDGeneration indicates the random source failed
	ErrIDGeneration = errors.New("session.id_generation_failed")

	// ErrUnknownAction indicates a decision carried an action the finalizer does not handle
	ErrUnknownAction = errors.New("session.unknown_action")

	ErrStoreConnection    = errors.New("session.store_connection")
	ErrStoreTimeout       = errors.New("session.store_timeout")
	ErrStoreSerialization = errors.New("session.store_serialization")
)

// StoreErrorKind classifies a backend failure.
type StoreErrorKind int

const (
	KindConnection StoreErrorKind = iota
	KindTimeout
	KindSerialization
)

func (k StoreErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindSerialization:
		return "serialization"
	default:
		return "connection"
	}
}

// StoreError wraps a failure of a store operation.
type StoreError struct {
	Op   string
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can write
// errors.Is(err, session.ErrStoreTimeout).
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrStoreConnection:
		return e.Kind == KindConnection
	case ErrStoreTimeout:
		return e.Kind == KindTimeout
	case ErrStoreSerialization:
		return e.Kind == KindSerialization
	}
	return false
}

// WrapStoreError converts err into a *StoreError for op. Nil stays nil and
// errors that already are store errors are returned unchanged.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	return &StoreError{Op: op, Kind: classify(err), Err: err}
}

// SerializationError wraps a codec failure for op.
func SerializationError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Kind: KindSerialization, Err: err}
}

func classify(err error) StoreErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindConnection
}

// CleanupError reports a failed sweep. It is handed to the cleanup error
// handler and never returned on the request path.
type CleanupError struct {
	Store string
	Err   error
}

func (e *CleanupError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("session cleanup: %v", e.Err)
	}
	return fmt.Sprintf("session cleanup (%s): %v", e.Store, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
