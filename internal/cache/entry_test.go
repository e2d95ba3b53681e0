package cache

import (
	"testing"
	"time"
)

var testPolicy = Policy{
	FreshTTL:     5 * time.Minute,
	StaleHorizon: 30 * time.Minute,
	NegativeTTL:  time.Minute,
	Capacity:     64,
}

func TestEnvelopeFreshness(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	pos := NewEnvelope(base, "steve")
	neg := NewNegative[string](base)

	cases := []struct {
		name string
		env  Envelope[string]
		at   time.Time
		want Freshness
	}{
		{"positive within fresh ttl", pos, base.Add(4 * time.Minute), Fresh},
		{"positive at fresh boundary", pos, base.Add(5 * time.Minute), Fresh},
		{"positive within stale horizon", pos, base.Add(20 * time.Minute), Stale},
		{"positive at stale boundary", pos, base.Add(35 * time.Minute), Stale},
		{"positive past horizon", pos, base.Add(35*time.Minute + time.Second), Expired},
		{"negative within negative ttl", neg, base.Add(30 * time.Second), Fresh},
		{"negative within stale horizon", neg, base.Add(10 * time.Minute), Stale},
		{"negative past horizon", neg, base.Add(32 * time.Minute), Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.env.FreshnessAt(tc.at, testPolicy); got != tc.want {
				t.Fatalf("FreshnessAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnvelopePolarity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if NewEnvelope(now, 42).Negative() {
		t.Fatal("positive envelope reported negative")
	}
	if !NewNegative[int](now).Negative() {
		t.Fatal("negative envelope reported positive")
	}
}

func TestPolicyRetention(t *testing.T) {
	if got, want := testPolicy.Retention(), 35*time.Minute; got != want {
		t.Fatalf("Retention = %v, want %v", got, want)
	}
}
