package redisstore

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// ErrNilClient is returned by New when no client is given.
var ErrNilClient = errors.New("redisstore.nil_client")

// Store keeps each session under its own key with a native TTL, so there is
// nothing to sweep. TTLs have one second granularity and are rounded up.
type Store struct {
	client redis.UniversalClient
	prefix string
	codec  session.Codec
	clock  clockwork.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces keys, e.g. "session:".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func WithCodec(c session.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a store on client.
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.Join(session.ErrConfig, ErrNilClient)
	}

	s := &Store{
		client: client,
		codec:  session.JSONCodec{},
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// ttl converts an absolute expiry into whole seconds, rounding up. A zero
// result means the record is already expired. Zero is never sent to Redis:
// instead of clamping to one second the caller deletes the key, so a record
// is gone at its expiry rather than a second later.
func (s *Store) ttl(expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(s.clock.Now())
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}

// Get returns the payload under id, or nil when the key is gone.
func (s *Store) Get(ctx context.Context, id string) (session.Values, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, session.WrapStoreError("get", err)
	}

	data, err := s.codec.Unmarshal(payload)
	if err != nil {
		return nil, session.SerializationError("get", err)
	}
	return data, nil
}

// Set writes the payload with SET EX. An expiresAt at or before now deletes
// the key instead of writing it.
func (s *Store) Set(ctx context.Context, id string, data session.Values, expiresAt time.Time) error {
	ttl := s.ttl(expiresAt)
	if ttl == 0 {
		return s.Destroy(ctx, id)
	}

	payload, err := s.codec.Marshal(data)
	if err != nil {
		return session.SerializationError("set", err)
	}

	return session.WrapStoreError("set", s.client.Set(ctx, s.key(id), payload, ttl).Err())
}

// Touch resets the TTL with EXPIRE, which does nothing for missing keys. An
// expiresAt at or before now destroys the key, like Set.
func (s *Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := s.ttl(expiresAt)
	if ttl == 0 {
		return s.Destroy(ctx, id)
	}
	return session.WrapStoreError("touch", s.client.Expire(ctx, s.key(id), ttl).Err())
}

// Destroy deletes the key.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return session.WrapStoreError("destroy", s.client.Del(ctx, s.key(id)).Err())
}
