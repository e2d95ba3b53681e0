package mojang

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/xenos/internal/metrics"
)

const (
	defaultUUIDBaseURL    = "https://api.mojang.com"
	defaultSessionBaseURL = "https://sessionserver.mojang.com"
	defaultTimeout        = 5 * time.Second

	// MaxBatchSize is the upstream limit for the bulk username lookup.
	MaxBatchSize = 10
)

// defaultTextureHosts is the exact host allow-list for texture fetches.
var defaultTextureHosts = []string{"textures.minecraft.net"}

// Options tune the client. Only Metrics is required; zero values fall back
// to the official endpoints and a five second per-request timeout.
type Options struct {
	// UUIDBaseURL is the base of the username resolve endpoints
	// (single and batch).
	UUIDBaseURL string

	// SessionBaseURL is the base of the profile endpoint.
	SessionBaseURL string

	// TextureHosts is the exact host allow-list for texture urls.
	TextureHosts []string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// HTTPClient overrides the pooled http client.
	HTTPClient *http.Client

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Client is a thin, stateless wrapper for the official mojang api. It is
// safe for concurrent use; the underlying http client pools connections.
type Client struct {
	http         *http.Client
	uuidBase     string
	sessionBase  string
	textureHosts map[string]struct{}
	log          *zap.Logger
	met          *metrics.Metrics
}

var _ API = (*Client)(nil)

// NewClient creates a new mojang api client.
func NewClient(opts Options) (*Client, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("mojang: metrics are required")
	}
	c := &Client{
		uuidBase:    coalesce(opts.UUIDBaseURL, defaultUUIDBaseURL),
		sessionBase: coalesce(opts.SessionBaseURL, defaultSessionBaseURL),
		log:         opts.Logger,
		met:         opts.Metrics,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.http = opts.HTTPClient
	if c.http == nil {
		c.http = &http.Client{Timeout: coalesce(opts.Timeout, defaultTimeout)}
	}
	hosts := opts.TextureHosts
	if len(hosts) == 0 {
		hosts = defaultTextureHosts
	}
	c.textureHosts = make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		c.textureHosts[h] = struct{}{}
	}
	return c, nil
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// do issues a single request and classifies the response status. A nil
// response with a nil error means "not found". The body is returned raw.
func (c *Client) do(ctx context.Context, requestType, method, rawURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("mojang: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.met.ObserveMojang(requestType, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.met.ObserveMojang(requestType, strconv.Itoa(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		// retry-after is surfaced, never slept on
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return raw, nil
}

// UUIDByName resolves a single username. A 2xx with a body is a hit, 204 and
// 404 are ErrNotFound.
func (c *Client) UUIDByName(ctx context.Context, name string) (UsernameResolved, error) {
	u := fmt.Sprintf("%s/users/profiles/minecraft/%s", c.uuidBase, url.PathEscape(name))
	raw, err := c.do(ctx, "uuid", http.MethodGet, u, nil)
	if err != nil {
		return UsernameResolved{}, err
	}
	if len(raw) == 0 {
		return UsernameResolved{}, ErrNotFound
	}
	var resolved UsernameResolved
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return UsernameResolved{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return resolved, nil
}

// UUIDsByNames resolves up to ten usernames in one request. The result is
// unordered and sparse; callers must re-associate by lowercased name.
func (c *Client) UUIDsByNames(ctx context.Context, names []string) ([]UsernameResolved, error) {
	if len(names) > MaxBatchSize {
		return nil, fmt.Errorf("mojang: batch of %d exceeds the upstream limit of %d", len(names), MaxBatchSize)
	}
	body, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("mojang: encode batch: %w", err)
	}
	raw, err := c.do(ctx, "uuids", http.MethodPost, c.uuidBase+"/profiles/minecraft", body)
	if err != nil {
		return nil, err
	}
	var resolved []UsernameResolved
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return resolved, nil
}

// Profile fetches the profile for a uuid, with property signatures when
// signed is set.
func (c *Client) Profile(ctx context.Context, id uuid.UUID, signed bool) (Profile, error) {
	u := fmt.Sprintf("%s/session/minecraft/profile/%s", c.sessionBase, Undashed(id))
	if signed {
		u += "?unsigned=false"
	}
	raw, err := c.do(ctx, "profile", http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, err
	}
	if len(raw) == 0 {
		return Profile{}, ErrNotFound
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return profile, nil
}

// TextureBytes fetches raw texture bytes. The url must point at an
// allow-listed texture host; anything else is rejected before any request
// is made.
func (c *Client) TextureBytes(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: texture url: %v", ErrMalformed, err)
	}
	if _, ok := c.textureHosts[parsed.Hostname()]; !ok {
		return nil, fmt.Errorf("%w: texture host %q not allowed", ErrMalformed, parsed.Hostname())
	}
	raw, err := c.do(ctx, "textures", http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	return raw, nil
}

// Undashed renders a uuid in the compact 32-char form the mojang endpoints
// and the xenos cache keys use.
func Undashed(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
