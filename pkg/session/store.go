package session

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

// Values is the session payload.
type Values map[string]any

// Clone returns a shallow copy. A nil receiver yields nil.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

// Store defines the interface for session persistence.
//
// Implementations must never return a record whose expiry has passed,
// whether or not it has been physically removed yet.
type Store interface {
	// Get returns the payload for id, or nil when it is missing or expired.
	Get(ctx context.Context, id string) (Values, error)

	// Set upserts the record. Concurrent calls for the same id leave one
	// complete record behind; the last write wins.
	Set(ctx context.Context, id string, data Values, expiresAt time.Time) error

	// Touch updates the expiry only. Missing ids are ignored.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Destroy removes the record. Destroying a missing id is not an error.
	Destroy(ctx context.Context, id string) error
}

// Sweeper is implemented by stores without native expiry.
type Sweeper interface {
	// DeleteExpired removes expired records and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// Codec serializes payloads for stores that keep bytes.
type Codec interface {
	Marshal(v Values) ([]byte, error)
	Unmarshal(data []byte) (Values, error)
}

// JSONCodec encodes payloads as JSON objects.
type JSONCodec struct{}

func (JSONCodec) Marshal(v Values) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte) (Values, error) {
	var v Values
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
