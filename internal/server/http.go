package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/xenos/internal/metrics"
	"github.com/unkn0wn-root/xenos/internal/mojang"
	"github.com/unkn0wn-root/xenos/internal/pb"
	"github.com/unkn0wn-root/xenos/internal/resolver"
)

// RESTOptions configures the rest facade.
type RESTOptions struct {
	Resolver *resolver.Resolver
	Logger   *zap.Logger
	Metrics  *metrics.Metrics

	// SignedProfiles makes profile lookups signed unless the request says
	// otherwise via ?signed=.
	SignedProfiles bool

	// BearerToken guards the api routes when non-empty.
	BearerToken string

	// MetricsUser and MetricsPass guard /metrics with basic auth when set.
	MetricsUser string
	MetricsPass string
}

// REST is the http facade. It shares its request and response shapes with
// the grpc service; texture endpoints answer raw image/png instead.
type REST struct {
	res    *resolver.Resolver
	log    *zap.Logger
	met    *metrics.Metrics
	opts   RESTOptions
	router *mux.Router
}

// NewREST builds the facade and its routes.
func NewREST(opts RESTOptions) *REST {
	s := &REST{
		res:  opts.Resolver,
		log:  opts.Logger,
		met:  opts.Metrics,
		opts: opts,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	r := mux.NewRouter()

	api := r.NewRoute().Subrouter()
	if opts.BearerToken != "" {
		api.Use(s.bearerAuth)
	}
	api.HandleFunc("/uuid/{username}", s.handleUUID).Methods(http.MethodGet)
	api.HandleFunc("/uuids", s.handleUUIDs).Methods(http.MethodPost)
	api.HandleFunc("/profile/{uuid}", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/skin/{uuid}", s.handleSkin).Methods(http.MethodGet)
	api.HandleFunc("/cape/{uuid}", s.handleCape).Methods(http.MethodGet)
	api.HandleFunc("/head/{uuid}", s.handleHead).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.met != nil {
		mh := promhttp.HandlerFor(s.met.Registry, promhttp.HandlerOpts{})
		if opts.MetricsUser != "" {
			mh = s.basicAuth(mh, opts.MetricsUser, opts.MetricsPass)
		}
		r.Handle("/metrics", mh).Methods(http.MethodGet)
	}

	s.router = r
	return s
}

func (s *REST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ---------------------------------------------------------------------------
// middleware
// ---------------------------------------------------------------------------

func (s *REST) bearerAuth(next http.Handler) http.Handler {
	want := "Bearer " + s.opts.BearerToken
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *REST) basicAuth(next http.Handler, user, pass string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *REST) count(requestType string) {
	if s.met != nil {
		s.met.Requests.WithLabelValues(requestType, "rest").Inc()
	}
}

// ---------------------------------------------------------------------------
// handlers
// ---------------------------------------------------------------------------

func (s *REST) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *REST) handleUUID(w http.ResponseWriter, r *http.Request) {
	s.count("uuid")
	username := mux.Vars(r)["username"]
	if len(username) == 0 || len(username) > maxUsernameBytes {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}
	d, err := s.res.ResolveUUID(r.Context(), username)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &pb.UuidResponse{
		Timestamp: d.Timestamp,
		Username:  d.Data.Name,
		Uuid:      d.Data.ID.String(),
		Legacy:    d.Data.Legacy,
		Demo:      d.Data.Demo,
	})
}

func (s *REST) handleUUIDs(w http.ResponseWriter, r *http.Request) {
	s.count("uuids")
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// the body may be a bare username array or the wrapped request object
	var req pb.UuidsRequest
	if err := json.Unmarshal(raw, &req.Usernames); err != nil {
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	names := make([]string, 0, len(req.Usernames))
	oversized := map[string]struct{}{}
	for _, n := range req.Usernames {
		if len(n) > maxUsernameBytes {
			oversized[n] = struct{}{}
			continue
		}
		names = append(names, n)
	}
	resolved, err := s.res.ResolveUUIDs(r.Context(), names)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}

	out := &pb.UuidsResponse{Entries: make([]*pb.UuidsEntry, 0, len(req.Usernames))}
	i := 0
	for _, n := range req.Usernames {
		if _, ok := oversized[n]; ok {
			out.Entries = append(out.Entries, &pb.UuidsEntry{Username: n})
			continue
		}
		e := resolved[i]
		i++
		entry := &pb.UuidsEntry{Timestamp: e.Timestamp, Username: e.Name, Found: e.Found}
		if e.Found {
			entry.Uuid = e.ID.String()
			entry.Legacy = e.Legacy
			entry.Demo = e.Demo
		}
		out.Entries = append(out.Entries, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *REST) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.count("profile")
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	signed := s.opts.SignedProfiles
	if !s.queryBool(w, r, "signed", &signed) {
		return
	}
	d, err := s.res.ResolveProfile(r.Context(), id, signed)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}
	resp := &pb.ProfileResponse{
		Timestamp:      d.Timestamp,
		Uuid:           d.Data.ID.String(),
		Name:           d.Data.Name,
		ProfileActions: d.Data.ProfileActions,
	}
	for _, p := range d.Data.Properties {
		resp.Properties = append(resp.Properties, &pb.ProfileProperty{
			Name:      p.Name,
			Value:     p.Value,
			Signature: p.Signature,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *REST) handleSkin(w http.ResponseWriter, r *http.Request) {
	s.count("skin")
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	d, err := s.res.ResolveSkin(r.Context(), id)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}
	w.Header().Set("X-Skin-Model", d.Data.Model)
	writePNG(w, d.Data.Bytes, d.Data.Default)
}

func (s *REST) handleCape(w http.ResponseWriter, r *http.Request) {
	s.count("cape")
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	d, err := s.res.ResolveCape(r.Context(), id)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}
	writePNG(w, d.Data.Bytes, false)
}

func (s *REST) handleHead(w http.ResponseWriter, r *http.Request) {
	s.count("head")
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	overlay := false
	if !s.queryBool(w, r, "overlay", &overlay) {
		return
	}
	d, err := s.res.ResolveHead(r.Context(), id, overlay)
	if err != nil {
		s.writeResolverError(w, err)
		return
	}
	writePNG(w, d.Data.Bytes, d.Data.Default)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// pathUUID parses the {uuid} path segment, accepting dashed and undashed
// input. On failure it answers 400 and returns ok=false.
func (s *REST) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid uuid")
		return uuid.UUID{}, false
	}
	return id, true
}

// queryBool overrides *dst when the query parameter is present. On a
// malformed value it answers 400 and returns false.
func (s *REST) queryBool(w http.ResponseWriter, r *http.Request, name string, dst *bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return false
	}
	*dst = v
	return true
}

func (s *REST) writeResolverError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mojang.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, mojang.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited by upstream")
	case errors.Is(err, mojang.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream not available")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "deadline exceeded")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writePNG(w http.ResponseWriter, b []byte, isDefault bool) {
	w.Header().Set("Content-Type", "image/png")
	if isDefault {
		w.Header().Set("X-Default", "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
