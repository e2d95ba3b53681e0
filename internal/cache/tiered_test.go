package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/xenos/internal/metrics"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getN    int
	setN    int
	delKeys []string
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getN++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setN++
	if f.setErr != nil {
		return false, f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.delKeys = append(f.delKeys, key)
	return nil
}

func (f *fakeStore) Close(context.Context) error { return nil }

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestTiered(t *testing.T, local, remote Store, clk *clock) *Tiered[string] {
	t.Helper()
	tc, err := NewTiered(TieredOptions[string]{
		Kind:    KindUUID,
		Policy:  testPolicy,
		Local:   local,
		Remote:  remote,
		Now:     clk.now,
		Metrics: metrics.New(),
	})
	if err != nil {
		t.Fatalf("NewTiered: %v", err)
	}
	return tc
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestTieredRequiresLocal(t *testing.T) {
	_, err := NewTiered(TieredOptions[string]{Kind: KindUUID})
	if !errors.Is(err, ErrNoLocalStore) {
		t.Fatalf("err = %v, want ErrNoLocalStore", err)
	}
}

func TestTieredPutWritesBothTiers(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	env := NewEnvelope(clk.now(), "value")
	if err := tc.Put(context.Background(), "hydrofin", env); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !local.has("hydrofin") {
		t.Fatal("local tier missing entry")
	}
	if !remote.has("xenos:uuid:hydrofin") {
		t.Fatal("remote tier missing namespaced entry")
	}
	if got, want := remote.ttls["xenos:uuid:hydrofin"], testPolicy.Retention(); got != want {
		t.Fatalf("remote ttl = %v, want %v", got, want)
	}
}

func TestTieredGetLocalHit(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	remote.getN = 0

	env, f, ok := tc.Get(context.Background(), "k")
	if !ok || f != Fresh {
		t.Fatalf("Get = (ok=%v, f=%v), want fresh hit", ok, f)
	}
	if env.Data == nil || *env.Data != "v" {
		t.Fatalf("Get data = %v, want v", env.Data)
	}
	if remote.getN != 0 {
		t.Fatalf("remote consulted %d times on local hit", remote.getN)
	}
}

func TestTieredGetRemoteFallbackReinsertsLocally(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// simulate local eviction
	local.mu.Lock()
	delete(local.data, "k")
	local.mu.Unlock()

	clk.advance(2 * time.Minute)
	_, f, ok := tc.Get(context.Background(), "k")
	if !ok || f != Fresh {
		t.Fatalf("Get = (ok=%v, f=%v), want fresh remote hit", ok, f)
	}
	if !local.has("k") {
		t.Fatal("remote hit not re-inserted locally")
	}
	if got, want := local.ttls["k"], testPolicy.Retention()-2*time.Minute; got != want {
		t.Fatalf("re-insert ttl = %v, want remaining retention %v", got, want)
	}
}

func TestTieredGetStaleClassification(t *testing.T) {
	local := newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, nil, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clk.advance(testPolicy.FreshTTL + time.Minute)

	_, f, ok := tc.Get(context.Background(), "k")
	if !ok || f != Stale {
		t.Fatalf("Get = (ok=%v, f=%v), want stale hit", ok, f)
	}
}

func TestTieredGetExpiredIsMissAndEvicts(t *testing.T) {
	local := newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, nil, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clk.advance(testPolicy.Retention() + time.Second)

	if _, _, ok := tc.Get(context.Background(), "k"); ok {
		t.Fatal("expired entry reported as hit")
	}
	if local.has("k") {
		t.Fatal("expired entry not evicted from local tier")
	}
}

func TestTieredRemoteErrorDemotedToMiss(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	remote.getErr = errors.New("connection refused")
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	if _, _, ok := tc.Get(context.Background(), "k"); ok {
		t.Fatal("remote error surfaced as hit")
	}
}

func TestTieredRemoteSetErrorDoesNotFailPut(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	remote.setErr = errors.New("read-only replica")
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !local.has("k") {
		t.Fatal("local write skipped after remote failure")
	}
}

func TestTieredCorruptEntryDropped(t *testing.T) {
	local := newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, nil, clk)

	local.data["k"] = []byte("{not json")
	if _, _, ok := tc.Get(context.Background(), "k"); ok {
		t.Fatal("corrupt entry reported as hit")
	}
	if local.has("k") {
		t.Fatal("corrupt entry not dropped")
	}
}

func TestTieredInvalidate(t *testing.T) {
	local, remote := newFakeStore(), newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, remote, clk)

	if err := tc.Put(context.Background(), "k", NewEnvelope(clk.now(), "v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := tc.Invalidate(context.Background(), "k"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if local.has("k") || remote.has("xenos:uuid:k") {
		t.Fatal("entry survived invalidation")
	}
}

func TestTieredNegativeEntryRoundTrip(t *testing.T) {
	local := newFakeStore()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	tc := newTestTiered(t, local, nil, clk)

	if err := tc.Put(context.Background(), "ghost", NewNegative[string](clk.now())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	env, f, ok := tc.Get(context.Background(), "ghost")
	if !ok || f != Fresh {
		t.Fatalf("Get = (ok=%v, f=%v), want fresh negative", ok, f)
	}
	if !env.Negative() {
		t.Fatal("negative entry lost polarity")
	}

	// negatives turn stale after the shorter negative ttl
	clk.advance(testPolicy.NegativeTTL + time.Second)
	_, f, ok = tc.Get(context.Background(), "ghost")
	if !ok || f != Stale {
		t.Fatalf("Get = (ok=%v, f=%v), want stale negative", ok, f)
	}
}
