package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RemoteStore is the shared tier: one redis instance fronted by the local
// tier of every xenos node. Every value written here is an encoded envelope
// with a bounded retention, so keys expire server-side and the store never
// has to sweep.
type RemoteStore struct {
	rdb   goredis.UniversalClient
	owned bool
}

var _ Store = (*RemoteStore)(nil)

// RemoteOptions locate the shared redis.
type RemoteOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRemoteStore dials a dedicated client for the shared tier. The store
// owns the connection and tears it down on Close.
func NewRemoteStore(opts RemoteOptions) (*RemoteStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("cache: remote store needs an address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RemoteStore{rdb: rdb, owned: true}, nil
}

// NewRemoteStoreWith wraps an externally managed client, for sentinel or
// cluster setups. Close leaves the client open.
func NewRemoteStoreWith(rdb goredis.UniversalClient) (*RemoteStore, error) {
	if rdb == nil {
		return nil, errors.New("cache: remote store needs a client")
	}
	return &RemoteStore{rdb: rdb}, nil
}

// Ping verifies the shared tier is reachable.
func (s *RemoteStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RemoteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key for ttl. Envelopes always carry a positive
// retention; an entry without one would linger in redis forever, so it is
// rejected instead of written unbounded.
func (s *RemoteStore) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("cache: remote entries need a positive ttl")
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RemoteStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Close disconnects when the store dialed its own client.
func (s *RemoteStore) Close(context.Context) error {
	if !s.owned {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
