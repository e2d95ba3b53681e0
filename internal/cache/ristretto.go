package cache

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// LocalStore is the bounded in-process tier backed by ristretto. One
// instance exists per entry kind so capacities stay independent; negative
// entries occupy a slot like any other (cost 1 per entry).
type LocalStore struct {
	c *rc.Cache
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a local tier bounded to maxEntries. Lookups are
// non-blocking; admission follows ristretto's tiny-lfu policy.
func NewLocalStore(maxEntries int64) (*LocalStore, error) {
	if maxEntries <= 0 {
		return nil, errors.New("cache: local store needs a positive capacity")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalStore{c: c}, nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	return s.c.SetWithTTL(key, value, cost, ttl), nil
}

func (s *LocalStore) Del(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *LocalStore) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes the underlying ristretto metrics for diagnostics.
func (s *LocalStore) Metrics() *rc.Metrics { return s.c.Metrics }
