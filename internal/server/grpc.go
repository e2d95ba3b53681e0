// Package server exposes the resolver through the two xenos facades, a grpc
// ProfileService and a rest api. Both are thin: validate input, call the
// resolver, map sentinel errors onto the transport's status space.
package server

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/unkn0wn-root/xenos/internal/metrics"
	"github.com/unkn0wn-root/xenos/internal/mojang"
	"github.com/unkn0wn-root/xenos/internal/pb"
	"github.com/unkn0wn-root/xenos/internal/resolver"
)

// maxUsernameBytes is the facade boundary for username input. Valid
// usernames are far shorter; anything beyond this is rejected outright
// instead of being treated as a lookup miss.
const maxUsernameBytes = 25

// ProfileServer implements pb.ProfileServiceServer on top of the resolver.
type ProfileServer struct {
	pb.UnimplementedProfileServiceServer

	res *resolver.Resolver
	log *zap.Logger
	met *metrics.Metrics
}

var _ pb.ProfileServiceServer = (*ProfileServer)(nil)

// NewProfileServer creates the grpc facade.
func NewProfileServer(res *resolver.Resolver, log *zap.Logger, met *metrics.Metrics) *ProfileServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileServer{res: res, log: log, met: met}
}

// NewGRPCServer builds a grpc server with the json codec forced and the
// ProfileService registered.
func NewGRPCServer(ps *ProfileServer) *grpc.Server {
	s := grpc.NewServer(grpc.ForceServerCodec(pb.Codec{}))
	pb.RegisterProfileServiceServer(s, ps)
	return s
}

func (s *ProfileServer) count(requestType string) {
	if s.met != nil {
		s.met.Requests.WithLabelValues(requestType, "grpc").Inc()
	}
}

// grpcStatus maps resolver errors onto grpc codes.
func grpcStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mojang.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, mojang.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited by upstream")
	case errors.Is(err, mojang.ErrUnavailable):
		return status.Error(codes.Unavailable, "upstream not available")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// parseUUID accepts dashed and undashed input.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, status.Error(codes.InvalidArgument, "invalid uuid")
	}
	return id, nil
}

func (s *ProfileServer) GetUuid(ctx context.Context, req *pb.UuidRequest) (*pb.UuidResponse, error) {
	s.count("uuid")
	if len(req.Username) == 0 || len(req.Username) > maxUsernameBytes {
		return nil, status.Error(codes.InvalidArgument, "invalid username")
	}
	d, err := s.res.ResolveUUID(ctx, req.Username)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.UuidResponse{
		Timestamp: d.Timestamp,
		Username:  d.Data.Name,
		Uuid:      d.Data.ID.String(),
		Legacy:    d.Data.Legacy,
		Demo:      d.Data.Demo,
	}, nil
}

func (s *ProfileServer) GetUuids(ctx context.Context, req *pb.UuidsRequest) (*pb.UuidsResponse, error) {
	s.count("uuids")

	// oversized names cannot exist; skip them here so one bad element does
	// not fail the whole batch
	names := make([]string, 0, len(req.Usernames))
	oversized := map[string]struct{}{}
	for _, n := range req.Usernames {
		if len(n) > maxUsernameBytes {
			oversized[n] = struct{}{}
			continue
		}
		names = append(names, n)
	}

	resolved, err := s.res.ResolveUUIDs(ctx, names)
	if err != nil {
		return nil, grpcStatus(err)
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
	return out, nil
}

func (s *ProfileServer) GetProfile(ctx context.Context, req *pb.ProfileRequest) (*pb.ProfileResponse, error) {
	s.count("profile")
	id, err := parseUUID(req.Uuid)
	if err != nil {
		return nil, err
	}
	d, err := s.res.ResolveProfile(ctx, id, req.Signed)
	if err != nil {
		return nil, grpcStatus(err)
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
	return resp, nil
}

func (s *ProfileServer) GetSkin(ctx context.Context, req *pb.SkinRequest) (*pb.SkinResponse, error) {
	s.count("skin")
	id, err := parseUUID(req.Uuid)
	if err != nil {
		return nil, err
	}
	d, err := s.res.ResolveSkin(ctx, id)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.SkinResponse{
		Timestamp: d.Timestamp,
		Bytes:     d.Data.Bytes,
		Model:     d.Data.Model,
		Default:   d.Data.Default,
	}, nil
}

func (s *ProfileServer) GetCape(ctx context.Context, req *pb.CapeRequest) (*pb.CapeResponse, error) {
	s.count("cape")
	id, err := parseUUID(req.Uuid)
	if err != nil {
		return nil, err
	}
	d, err := s.res.ResolveCape(ctx, id)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.CapeResponse{Timestamp: d.Timestamp, Bytes: d.Data.Bytes}, nil
}

func (s *ProfileServer) GetHead(ctx context.Context, req *pb.HeadRequest) (*pb.HeadResponse, error) {
	s.count("head")
	id, err := parseUUID(req.Uuid)
	if err != nil {
		return nil, err
	}
	d, err := s.res.ResolveHead(ctx, id, req.Overlay)
	if err != nil {
		return nil, grpcStatus(err)
	}
	return &pb.HeadResponse{
		Timestamp: d.Timestamp,
		Bytes:     d.Data.Bytes,
		Default:   d.Data.Default,
	}, nil
}
