// Package cache implements the two-tier cache of xenos: a bounded in-process
// tier (ristretto) optionally fronting a shared remote tier (redis). Values
// are wrapped in timestamped envelopes so every read can be classified as
// fresh, stale or expired against a per-kind policy.
package cache

import "time"

// Freshness is the lifecycle state of an envelope relative to its policy.
type Freshness int

const (
	// Fresh entries are within the fresh ttl and answered without upstream.
	Fresh Freshness = iota

	// Stale entries have passed the fresh window but are still within the
	// stale horizon. They are only served when the upstream is unreachable.
	Stale

	// Expired entries have passed the stale horizon and are treated as
	// absent.
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Kind identifies an entry namespace. Every kind has its own policy,
// capacity and key space; signed and unsigned profiles are distinct kinds
// because a fresh unsigned entry must not satisfy a signed request.
type Kind string

const (
	KindUUID          Kind = "uuid"
	KindProfile       Kind = "profile"
	KindProfileSigned Kind = "profile_signed"
	KindSkin          Kind = "skin"
	KindCape          Kind = "cape"
	KindHead          Kind = "head"
)

// Envelope associates cached data with its creation time. A nil Data marks a
// negative entry: the key was confirmed absent upstream. Envelopes are
// immutable; updates replace the whole envelope.
type Envelope[D any] struct {
	// Timestamp is the wall-clock second at which the value was written.
	Timestamp int64 `json:"timestamp"`

	// Data is the payload, nil for negative entries.
	Data *D `json:"data,omitempty"`
}

// NewEnvelope creates a positive envelope dated now.
func NewEnvelope[D any](now time.Time, data D) Envelope[D] {
	return Envelope[D]{Timestamp: now.Unix(), Data: &data}
}

// NewNegative creates a negative envelope dated now.
func NewNegative[D any](now time.Time) Envelope[D] {
	return Envelope[D]{Timestamp: now.Unix()}
}

// Negative reports whether the envelope records a confirmed absence.
func (e Envelope[D]) Negative() bool { return e.Data == nil }

// Age is the relative time from the envelope's creation until now.
func (e Envelope[D]) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(e.Timestamp, 0))
}

// Policy holds the per-kind expiry configuration.
type Policy struct {
	// FreshTTL bounds the fresh window of positive entries.
	FreshTTL time.Duration

	// StaleHorizon extends the fresh window; entries within it may be
	// served when upstream is unreachable.
	StaleHorizon time.Duration

	// NegativeTTL bounds the fresh window of negative entries.
	NegativeTTL time.Duration

	// Capacity bounds the local tier entry count for this kind.
	Capacity int64
}

// Retention is how long an entry stays materialized in either tier. Stores
// garbage-collect past it without any coordination.
func (p Policy) Retention() time.Duration {
	return p.FreshTTL + p.StaleHorizon
}

// FreshnessAt classifies the envelope at the given instant. The fresh window
// depends on the envelope polarity; the stale horizon applies to both.
func (e Envelope[D]) FreshnessAt(now time.Time, p Policy) Freshness {
	ttl := p.FreshTTL
	if e.Negative() {
		ttl = p.NegativeTTL
	}
	age := e.Age(now)
	switch {
	case age <= ttl:
		return Fresh
	case age <= ttl+p.StaleHorizon:
		return Stale
	default:
		return Expired
	}
}
