package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/xenos/internal/cache/codec"
	"github.com/unkn0wn-root/xenos/internal/metrics"
)

const (
	tierLocal  = "local"
	tierRemote = "remote"

	// remoteKeyPrefix namespaces all xenos entries in the shared store.
	remoteKeyPrefix = "xenos:"
)

// ErrNoLocalStore is returned by NewTiered when no local tier is given.
var ErrNoLocalStore = errors.New("cache: local store is required")

// Tiered is the typed, two-tier cache for one entry kind. Reads try the
// local tier first and fall back to the remote tier, re-inserting hits
// locally; writes go remote first, then local. The remote tier is optional
// and strictly best-effort: any remote failure is demoted to a miss so the
// upstream path still works when redis is down.
type Tiered[D any] struct {
	kind   Kind
	policy Policy
	codec  codec.Codec[Envelope[D]]
	local  Store
	remote Store

	now func() time.Time
	log *zap.Logger
	met *metrics.Metrics
}

// TieredOptions configures a Tiered cache for one kind.
type TieredOptions[D any] struct {
	Kind   Kind
	Policy Policy

	// Local is the in-process tier. Required.
	Local Store

	// Remote is the shared tier. Optional; nil disables it.
	Remote Store

	// Codec encodes envelopes for both tiers. Defaults to JSON.
	Codec codec.Codec[Envelope[D]]

	// Now is the clock, swappable in tests. Defaults to time.Now.
	Now func() time.Time

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewTiered creates a tiered cache for one kind.
func NewTiered[D any](opts TieredOptions[D]) (*Tiered[D], error) {
	if opts.Kind == "" {
		return nil, errors.New("cache: kind is required")
	}
	if opts.Local == nil {
		return nil, ErrNoLocalStore
	}
	t := &Tiered[D]{
		kind:   opts.Kind,
		policy: opts.Policy,
		codec:  opts.Codec,
		local:  opts.Local,
		remote: opts.Remote,
		now:    opts.Now,
		log:    opts.Logger,
		met:    opts.Metrics,
	}
	if t.codec == nil {
		t.codec = codec.JSON[Envelope[D]]{}
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	return t, nil
}

// Kind returns the entry kind this cache serves.
func (t *Tiered[D]) Kind() Kind { return t.kind }

// Policy returns the expiry policy this cache applies.
func (t *Tiered[D]) Policy() Policy { return t.policy }

func (t *Tiered[D]) remoteKey(key string) string {
	return remoteKeyPrefix + string(t.kind) + ":" + key
}

// Get looks up key across both tiers. The returned Freshness is only
// meaningful when ok is true; Expired entries are reported as misses.
func (t *Tiered[D]) Get(ctx context.Context, key string) (Envelope[D], Freshness, bool) {
	now := t.now()

	if env, ok := t.getTier(ctx, t.local, tierLocal, key); ok {
		if f := env.FreshnessAt(now, t.policy); f != Expired {
			t.countGet(tierLocal, f)
			return env, f, true
		}
		// past the stale horizon: drop it so the slot frees up
		_ = t.local.Del(ctx, key)
	}
	t.countGet(tierLocal, Expired)

	if t.remote == nil {
		return Envelope[D]{}, Expired, false
	}

	env, ok := t.getTier(ctx, t.remote, tierRemote, t.remoteKey(key))
	if !ok {
		t.countGet(tierRemote, Expired)
		return Envelope[D]{}, Expired, false
	}
	f := env.FreshnessAt(now, t.policy)
	if f == Expired {
		t.countGet(tierRemote, Expired)
		return Envelope[D]{}, Expired, false
	}
	t.countGet(tierRemote, f)

	// re-insert locally for the remaining retention window
	if ttl := t.policy.Retention() - env.Age(now); ttl > 0 {
		if _, err := t.local.Set(ctx, key, t.mustEncode(env), 1, ttl); err == nil {
			t.countSet(tierLocal)
		}
	}
	return env, f, true
}

// Put writes an envelope to both tiers, remote first. Remote write failures
// are logged and counted but never surfaced.
func (t *Tiered[D]) Put(ctx context.Context, key string, env Envelope[D]) error {
	b, err := t.codec.Encode(env)
	if err != nil {
		return err
	}
	ttl := t.policy.Retention()

	if t.remote != nil {
		if _, err := t.remote.Set(ctx, t.remoteKey(key), b, 1, ttl); err != nil {
			t.remoteError("set", key, err)
		} else {
			t.countSet(tierRemote)
		}
	}
	if _, err := t.local.Set(ctx, key, b, 1, ttl); err != nil {
		return err
	}
	t.countSet(tierLocal)
	return nil
}

// Invalidate removes key from both tiers.
func (t *Tiered[D]) Invalidate(ctx context.Context, key string) error {
	var remoteErr error
	if t.remote != nil {
		if err := t.remote.Del(ctx, t.remoteKey(key)); err != nil {
			t.remoteError("del", key, err)
			remoteErr = err
		}
	}
	if err := t.local.Del(ctx, key); err != nil {
		return err
	}
	return remoteErr
}

// Close releases the local tier. The remote store is shared across kinds and
// closed by its owner.
func (t *Tiered[D]) Close(ctx context.Context) error {
	return t.local.Close(ctx)
}

func (t *Tiered[D]) getTier(ctx context.Context, s Store, tier, key string) (Envelope[D], bool) {
	b, ok, err := s.Get(ctx, key)
	if err != nil {
		if tier == tierRemote {
			t.remoteError("get", key, err)
		}
		return Envelope[D]{}, false
	}
	if !ok {
		return Envelope[D]{}, false
	}
	env, err := t.codec.Decode(b)
	if err != nil {
		// corrupt entry, drop and report a miss
		t.log.Warn("dropping undecodable cache entry",
			zap.String("kind", string(t.kind)),
			zap.String("tier", tier),
			zap.Error(err))
		_ = s.Del(ctx, key)
		return Envelope[D]{}, false
	}
	return env, true
}

func (t *Tiered[D]) mustEncode(env Envelope[D]) []byte {
	b, err := t.codec.Encode(env)
	if err != nil {
		// envelopes round-trip through the codec on every Put; by the time a
		// re-insert happens encoding cannot fail
		panic("cache: encode: " + err.Error())
	}
	return b
}

func (t *Tiered[D]) countGet(tier string, f Freshness) {
	if t.met == nil {
		return
	}
	result := "miss"
	switch f {
	case Fresh:
		result = "hit"
	case Stale:
		result = "stale"
	}
	t.met.CacheGets.WithLabelValues(tier, string(t.kind), result).Inc()
}

func (t *Tiered[D]) countSet(tier string) {
	if t.met == nil {
		return
	}
	t.met.CacheSets.WithLabelValues(tier, string(t.kind)).Inc()
}

func (t *Tiered[D]) remoteError(op, key string, err error) {
	t.log.Warn("remote cache error",
		zap.String("op", op),
		zap.String("kind", string(t.kind)),
		zap.String("key", key),
		zap.Error(err))
	if t.met != nil {
		t.met.RemoteCacheErrors.WithLabelValues(string(t.kind)).Inc()
	}
}
