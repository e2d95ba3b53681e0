package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/xenos/internal/cache"
	"github.com/unkn0wn-root/xenos/internal/metrics"
	"github.com/unkn0wn-root/xenos/internal/mojang"
	"github.com/unkn0wn-root/xenos/internal/resolver"
)

var (
	hydrofinID   = uuid.MustParse("09879557-e479-45a9-b434-a56377674627")
	hydrofinHex  = "09879557e47945a9b434a56377674627"
	oldtimerID   = uuid.MustParse("9c09eef4-f68d-4387-9751-72bbff53d5a0")
	testSkinPNG  = []byte{0x89, 'P', 'N', 'G'} // opaque to the facades
	testPolicies = cache.Policy{
		FreshTTL:     time.Hour,
		StaleHorizon: time.Hour,
		NegativeTTL:  time.Minute,
		Capacity:     64,
	}
)

// stubMojang answers from fixed maps and counts profile lookups.
type stubMojang struct {
	mu           sync.Mutex
	profileCalls int

	users    map[string]mojang.UsernameResolved
	profiles map[uuid.UUID]mojang.Profile
	err      error
}

var _ mojang.API = (*stubMojang)(nil)

func newStubMojang() *stubMojang {
	return &stubMojang{
		users: map[string]mojang.UsernameResolved{
			"hydrofin": {ID: hydrofinID, Name: "Hydrofin"},
			"oldtimer": {ID: oldtimerID, Name: "OldTimer", Legacy: true, Demo: true},
		},
		profiles: map[uuid.UUID]mojang.Profile{
			hydrofinID: {ID: hydrofinID, Name: "Hydrofin"},
		},
	}
}

func (s *stubMojang) UUIDByName(_ context.Context, name string) (mojang.UsernameResolved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return mojang.UsernameResolved{}, s.err
	}
	if u, ok := s.users[name]; ok {
		return u, nil
	}
	return mojang.UsernameResolved{}, mojang.ErrNotFound
}

func (s *stubMojang) UUIDsByNames(_ context.Context, names []string) ([]mojang.UsernameResolved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []mojang.UsernameResolved
	for _, n := range names {
		if u, ok := s.users[n]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubMojang) Profile(_ context.Context, id uuid.UUID, _ bool) (mojang.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileCalls++
	if s.err != nil {
		return mojang.Profile{}, s.err
	}
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return mojang.Profile{}, mojang.ErrNotFound
}

func (s *stubMojang) TextureBytes(context.Context, string) ([]byte, error) {
	return testSkinPNG, nil
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ cache.Store = (*memStore)(nil)

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	return b, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return true, nil
}

func (s *memStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) Close(context.Context) error { return nil }

func newTestResolver(t *testing.T, api mojang.API, met *metrics.Metrics) *resolver.Resolver {
	t.Helper()
	mk := func() *memStore { return &memStore{data: map[string][]byte{}} }

	var (
		caches resolver.Caches
		err    error
	)
	if caches.UUID, err = cache.NewTiered(cache.TieredOptions[resolver.UUIDData]{
		Kind: cache.KindUUID, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}
	if caches.Profile, err = cache.NewTiered(cache.TieredOptions[mojang.Profile]{
		Kind: cache.KindProfile, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}
	if caches.ProfileSigned, err = cache.NewTiered(cache.TieredOptions[mojang.Profile]{
		Kind: cache.KindProfileSigned, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}
	if caches.Skin, err = cache.NewTiered(cache.TieredOptions[resolver.SkinData]{
		Kind: cache.KindSkin, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}
	if caches.Cape, err = cache.NewTiered(cache.TieredOptions[resolver.CapeData]{
		Kind: cache.KindCape, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}
	if caches.Head, err = cache.NewTiered(cache.TieredOptions[resolver.HeadData]{
		Kind: cache.KindHead, Policy: testPolicies, Local: mk(), Metrics: met,
	}); err != nil {
		t.Fatal(err)
	}

	res, err := resolver.New(resolver.Options{Mojang: api, Caches: caches, Metrics: met})
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return res
}
