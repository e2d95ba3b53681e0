// Package resolver implements the cache-first resolution pipeline of xenos:
// every lookup consults the tiered cache, deduplicates concurrent misses in
// a single flight per key and only then talks to mojang, writing results
// (including confirmed absences) back to both tiers. When the upstream is
// unreachable the resolver degrades to stale entries within the horizon.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/xenos/internal/cache"
	"github.com/unkn0wn-root/xenos/internal/metrics"
	"github.com/unkn0wn-root/xenos/internal/mojang"
	"github.com/unkn0wn-root/xenos/internal/skin"
)

// usernameRE matches valid minecraft usernames. Anything else is a
// confirmed absence without an upstream call.
var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_]{2,16}$`)

// UUIDData is the cached answer of a username lookup. Name carries the
// canonical casing as returned by the upstream; the account flags are
// preserved as delivered.
type UUIDData struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Legacy bool      `json:"legacy,omitempty"`
	Demo   bool      `json:"demo,omitempty"`
}

// SkinData is a cached skin texture. Default marks the built-in fallback
// served for profiles without a custom skin.
type SkinData struct {
	Bytes   []byte `json:"bytes"`
	Model   string `json:"model"`
	Default bool   `json:"default,omitempty"`
}

// CapeData is a cached cape texture.
type CapeData struct {
	Bytes []byte `json:"bytes"`
}

// HeadData is a cached, pre-rendered head image.
type HeadData struct {
	Bytes   []byte `json:"bytes"`
	Default bool   `json:"default,omitempty"`
}

// Dated pairs resolved data with the unix second its cache entry was
// created, so facades can expose entry age.
type Dated[D any] struct {
	Timestamp int64
	Data      D
}

// BatchEntry is one element of a batch username resolution, in input order
// and with the caller's casing.
type BatchEntry struct {
	Name      string
	ID        uuid.UUID
	Found     bool
	Legacy    bool
	Demo      bool
	Timestamp int64
}

// Caches groups the six per-kind tiered caches the resolver works on.
// Signed and unsigned profiles are separate namespaces on purpose.
type Caches struct {
	UUID          *cache.Tiered[UUIDData]
	Profile       *cache.Tiered[mojang.Profile]
	ProfileSigned *cache.Tiered[mojang.Profile]
	Skin          *cache.Tiered[SkinData]
	Cape          *cache.Tiered[CapeData]
	Head          *cache.Tiered[HeadData]
}

func (c Caches) validate() error {
	if c.UUID == nil || c.Profile == nil || c.ProfileSigned == nil ||
		c.Skin == nil || c.Cape == nil || c.Head == nil {
		return errors.New("resolver: all six caches are required")
	}
	return nil
}

// Options configures a Resolver.
type Options struct {
	Mojang mojang.API
	Caches Caches

	// Admission bounds outbound mojang traffic. Zero value applies defaults.
	Admission AdmissionConfig

	// Now is the clock, swappable in tests. Defaults to time.Now.
	Now func() time.Time

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Resolver answers profile lookups cache-first with single-flight
// deduplication and stale fallback. Safe for concurrent use.
type Resolver struct {
	api    mojang.API
	caches Caches
	adm    *admission
	now    func() time.Time
	log    *zap.Logger
	met    *metrics.Metrics

	uuidFlights          *flightGroup[cache.Envelope[UUIDData]]
	batchFlights         *flightGroup[map[string]cache.Envelope[UUIDData]]
	profileFlights       *flightGroup[cache.Envelope[mojang.Profile]]
	profileSignedFlights *flightGroup[cache.Envelope[mojang.Profile]]
	skinFlights          *flightGroup[cache.Envelope[SkinData]]
	capeFlights          *flightGroup[cache.Envelope[CapeData]]
	headFlights          *flightGroup[cache.Envelope[HeadData]]
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	if opts.Mojang == nil {
		return nil, errors.New("resolver: mojang api is required")
	}
	if err := opts.Caches.validate(); err != nil {
		return nil, err
	}
	if opts.Admission == (AdmissionConfig{}) {
		opts.Admission = DefaultAdmissionConfig()
	}
	r := &Resolver{
		api:    opts.Mojang,
		caches: opts.Caches,
		adm:    newAdmission(opts.Admission),
		now:    opts.Now,
		log:    opts.Logger,
		met:    opts.Metrics,

		uuidFlights:          newFlightGroup[cache.Envelope[UUIDData]](),
		batchFlights:         newFlightGroup[map[string]cache.Envelope[UUIDData]](),
		profileFlights:       newFlightGroup[cache.Envelope[mojang.Profile]](),
		profileSignedFlights: newFlightGroup[cache.Envelope[mojang.Profile]](),
		skinFlights:          newFlightGroup[cache.Envelope[SkinData]](),
		capeFlights:          newFlightGroup[cache.Envelope[CapeData]](),
		headFlights:          newFlightGroup[cache.Envelope[HeadData]](),
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r, nil
}

// staleEligible reports whether err permits degrading to a stale entry.
// Only upstream trouble qualifies; caller cancellation never does.
func staleEligible(err error) bool {
	return errors.Is(err, mojang.ErrRateLimited) ||
		errors.Is(err, mojang.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// resolveEntry is the shared cache-flight-upstream pipeline. fetch runs on
// the flight's leader context and returns the fresh data, or
// mojang.ErrNotFound to record a confirmed absence. On upstream failure a
// known stale entry is served instead.
func resolveEntry[D any](
	ctx context.Context,
	r *Resolver,
	c *cache.Tiered[D],
	g *flightGroup[cache.Envelope[D]],
	key string,
	fetch func(context.Context) (*D, error),
) (cache.Envelope[D], error) {
	env, f, ok := c.Get(ctx, key)
	if ok && f == cache.Fresh {
		return env, nil
	}
	var stale *cache.Envelope[D]
	if ok && f == cache.Stale {
		stale = &env
	}

	got, err := g.Do(ctx, key, func(fctx context.Context) (cache.Envelope[D], error) {
		data, ferr := fetch(fctx)
		var fresh cache.Envelope[D]
		switch {
		case errors.Is(ferr, mojang.ErrNotFound):
			fresh = cache.NewNegative[D](r.now())
		case ferr != nil:
			return cache.Envelope[D]{}, ferr
		default:
			fresh = cache.Envelope[D]{Timestamp: r.now().Unix(), Data: data}
		}
		// an abandoned leader must not publish
		if fctx.Err() != nil {
			return cache.Envelope[D]{}, fctx.Err()
		}
		if perr := c.Put(fctx, key, fresh); perr != nil {
			r.log.Warn("cache write failed",
				zap.String("kind", string(c.Kind())),
				zap.String("key", key),
				zap.Error(perr))
		}
		return fresh, nil
	})
	if err != nil {
		if stale != nil && staleEligible(err) {
			r.serveStale(c.Kind())
			return *stale, nil
		}
		return cache.Envelope[D]{}, err
	}
	return got, nil
}

func (r *Resolver) serveStale(kind cache.Kind) {
	if r.met != nil {
		r.met.ServedStale.WithLabelValues(string(kind)).Inc()
	}
}

// ResolveUUID resolves a username to its uuid and canonical casing.
// Usernames outside the valid charset or length are absent by definition.
func (r *Resolver) ResolveUUID(ctx context.Context, name string) (Dated[UUIDData], error) {
	username := strings.ToLower(strings.TrimSpace(name))
	if !usernameRE.MatchString(username) {
		return Dated[UUIDData]{}, mojang.ErrNotFound
	}
	env, err := resolveEntry(ctx, r, r.caches.UUID, r.uuidFlights, username,
		func(fctx context.Context) (*UUIDData, error) {
			release, err := r.adm.acquire(fctx, endpointUUID)
			if err != nil {
				return nil, err
			}
			defer release()
			res, err := r.api.UUIDByName(fctx, username)
			if err != nil {
				return nil, err
			}
			return &UUIDData{ID: res.ID, Name: res.Name, Legacy: res.Legacy, Demo: res.Demo}, nil
		})
	return dated(env, err)
}

// ResolveUUIDs resolves a set of usernames, preserving input order and the
// caller's casing. Duplicate names (case-insensitively) collapse onto one
// lookup; names needing upstream are partitioned into batches of at most
// mojang.MaxBatchSize, each its own flight. Invalid usernames resolve to
// not-found without touching cache or upstream.
func (r *Resolver) ResolveUUIDs(ctx context.Context, names []string) ([]BatchEntry, error) {
	now := r.now().Unix()

	resolved := make(map[string]cache.Envelope[UUIDData], len(names))
	stale := map[string]cache.Envelope[UUIDData]{}
	pending := map[string]struct{}{}
	var missing []string

	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if _, seen := resolved[lower]; seen {
			continue
		}
		if _, seen := pending[lower]; seen {
			continue
		}
		if !usernameRE.MatchString(lower) {
			resolved[lower] = cache.Envelope[UUIDData]{Timestamp: now}
			continue
		}
		env, f, ok := r.caches.UUID.Get(ctx, lower)
		if ok && f == cache.Fresh {
			resolved[lower] = env
			continue
		}
		if ok && f == cache.Stale {
			stale[lower] = env
		}
		pending[lower] = struct{}{}
		missing = append(missing, lower)
	}

	// stable chunking keeps concurrent identical batches on the same flights
	sort.Strings(missing)
	var firstErr error
	for start := 0; start < len(missing); start += mojang.MaxBatchSize {
		end := start + mojang.MaxBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		got, err := r.resolveBatchChunk(ctx, chunk)
		if err != nil {
			for _, lower := range chunk {
				if env, ok := stale[lower]; ok && staleEligible(err) {
					r.serveStale(cache.KindUUID)
					resolved[lower] = env
				} else if firstErr == nil {
					firstErr = err
				}
			}
			continue
		}
		for lower, env := range got {
			resolved[lower] = env
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	entries := make([]BatchEntry, len(names))
	for i, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		env := resolved[lower]
		entries[i] = BatchEntry{Name: name, Timestamp: env.Timestamp}
		if !env.Negative() {
			entries[i].ID = env.Data.ID
			entries[i].Found = true
			entries[i].Legacy = env.Data.Legacy
			entries[i].Demo = env.Data.Demo
		}
	}
	return entries, nil
}

// batchKey derives a deterministic, bounded flight key from a sorted chunk.
func batchKey(chunk []string) string {
	sum := sha256.Sum256([]byte(strings.Join(chunk, ",")))
	return "batch:" + hex.EncodeToString(sum[:8])
}

// resolveBatchChunk resolves one ≤MaxBatchSize chunk of lowercased names in
// a single flight, writing every result (absences included) back to cache.
func (r *Resolver) resolveBatchChunk(ctx context.Context, chunk []string) (map[string]cache.Envelope[UUIDData], error) {
	return r.batchFlights.Do(ctx, batchKey(chunk), func(fctx context.Context) (map[string]cache.Envelope[UUIDData], error) {
		release, err := r.adm.acquire(fctx, endpointUUIDs)
		if err != nil {
			return nil, err
		}
		defer release()

		res, err := r.api.UUIDsByNames(fctx, chunk)
		if err != nil {
			return nil, err
		}
		byName := make(map[string]mojang.UsernameResolved, len(res))
		for _, rr := range res {
			byName[strings.ToLower(rr.Name)] = rr
		}

		now := r.now()
		out := make(map[string]cache.Envelope[UUIDData], len(chunk))
		for _, lower := range chunk {
			env := cache.NewNegative[UUIDData](now)
			if rr, ok := byName[lower]; ok {
				env = cache.NewEnvelope(now, UUIDData{
					ID:     rr.ID,
					Name:   rr.Name,
					Legacy: rr.Legacy,
					Demo:   rr.Demo,
				})
			}
			out[lower] = env
			if fctx.Err() == nil {
				if perr := r.caches.UUID.Put(fctx, lower, env); perr != nil {
					r.log.Warn("cache write failed",
						zap.String("kind", string(cache.KindUUID)),
						zap.String("key", lower),
						zap.Error(perr))
				}
			}
		}
		return out, nil
	})
}

// ResolveProfile resolves the full profile for a uuid. Signed lookups carry
// property signatures and live in their own cache namespace.
func (r *Resolver) ResolveProfile(ctx context.Context, id uuid.UUID, signed bool) (Dated[mojang.Profile], error) {
	c, g := r.caches.Profile, r.profileFlights
	if signed {
		c, g = r.caches.ProfileSigned, r.profileSignedFlights
	}
	env, err := resolveEntry(ctx, r, c, g, mojang.Undashed(id),
		func(fctx context.Context) (*mojang.Profile, error) {
			release, err := r.adm.acquire(fctx, endpointProfile)
			if err != nil {
				return nil, err
			}
			defer release()
			p, err := r.api.Profile(fctx, id, signed)
			if err != nil {
				return nil, err
			}
			return &p, nil
		})
	return dated(env, err)
}

// ResolveSkin resolves the skin texture for a uuid. Profiles without a
// custom skin get the built-in default for their uuid.
func (r *Resolver) ResolveSkin(ctx context.Context, id uuid.UUID) (Dated[SkinData], error) {
	env, err := resolveEntry(ctx, r, r.caches.Skin, r.skinFlights, mojang.Undashed(id),
		func(fctx context.Context) (*SkinData, error) {
			tex, err := r.profileTextures(fctx, id)
			if err != nil {
				return nil, err
			}
			if tex.Textures.Skin == nil {
				b, model := skin.DefaultSkin(id)
				return &SkinData{Bytes: b, Model: string(model), Default: true}, nil
			}
			release, err := r.adm.acquire(fctx, endpointTextures)
			if err != nil {
				return nil, err
			}
			defer release()
			b, err := r.api.TextureBytes(fctx, tex.Textures.Skin.URL)
			if err != nil {
				return nil, err
			}
			return &SkinData{Bytes: b, Model: tex.Textures.Skin.Model()}, nil
		})
	return dated(env, err)
}

// ResolveCape resolves the cape texture for a uuid. Most profiles carry no
// cape; that is a confirmed absence, not an error.
func (r *Resolver) ResolveCape(ctx context.Context, id uuid.UUID) (Dated[CapeData], error) {
	env, err := resolveEntry(ctx, r, r.caches.Cape, r.capeFlights, mojang.Undashed(id),
		func(fctx context.Context) (*CapeData, error) {
			tex, err := r.profileTextures(fctx, id)
			if err != nil {
				return nil, err
			}
			if tex.Textures.Cape == nil {
				return nil, mojang.ErrNotFound
			}
			release, err := r.adm.acquire(fctx, endpointTextures)
			if err != nil {
				return nil, err
			}
			defer release()
			b, err := r.api.TextureBytes(fctx, tex.Textures.Cape.URL)
			if err != nil {
				return nil, err
			}
			return &CapeData{Bytes: b}, nil
		})
	return dated(env, err)
}

// ResolveHead resolves the pre-rendered 8x8 head for a uuid. Heads with and
// without the overlay layer are cached under distinct keys.
func (r *Resolver) ResolveHead(ctx context.Context, id uuid.UUID, overlay bool) (Dated[HeadData], error) {
	key := mojang.Undashed(id)
	if overlay {
		key += ".overlay"
	}
	env, err := resolveEntry(ctx, r, r.caches.Head, r.headFlights, key,
		func(fctx context.Context) (*HeadData, error) {
			sk, err := r.ResolveSkin(fctx, id)
			if err != nil {
				return nil, err
			}
			b, err := skin.Head(sk.Data.Bytes, overlay)
			if err != nil {
				return nil, err
			}
			return &HeadData{Bytes: b, Default: sk.Data.Default}, nil
		})
	return dated(env, err)
}

// profileTextures resolves the unsigned profile through the profile cache
// and decodes its textures property.
func (r *Resolver) profileTextures(ctx context.Context, id uuid.UUID) (mojang.TexturesProperty, error) {
	p, err := r.ResolveProfile(ctx, id, false)
	if err != nil {
		return mojang.TexturesProperty{}, err
	}
	return mojang.DecodeTextures(p.Data)
}

// dated unwraps an envelope into the public result shape, turning negative
// entries into mojang.ErrNotFound.
func dated[D any](env cache.Envelope[D], err error) (Dated[D], error) {
	if err != nil {
		return Dated[D]{}, err
	}
	if env.Negative() {
		return Dated[D]{}, mojang.ErrNotFound
	}
	return Dated[D]{Timestamp: env.Timestamp, Data: *env.Data}, nil
}
