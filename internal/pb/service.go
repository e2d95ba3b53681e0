package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified grpc service name.
const ServiceName = "xenos.ProfileService"

// ProfileServiceServer is the server API for the ProfileService.
type ProfileServiceServer interface {
	GetUuid(context.Context, *UuidRequest) (*UuidResponse, error)
	GetUuids(context.Context, *UuidsRequest) (*UuidsResponse, error)
	GetProfile(context.Context, *ProfileRequest) (*ProfileResponse, error)
	GetSkin(context.Context, *SkinRequest) (*SkinResponse, error)
	GetCape(context.Context, *CapeRequest) (*CapeResponse, error)
	GetHead(context.Context, *HeadRequest) (*HeadResponse, error)
}

// UnimplementedProfileServiceServer can be embedded for forward
// compatibility.
type UnimplementedProfileServiceServer struct{}

func (UnimplementedProfileServiceServer) GetUuid(context.Context, *UuidRequest) (*UuidResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUuid not implemented")
}
func (UnimplementedProfileServiceServer) GetUuids(context.Context, *UuidsRequest) (*UuidsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUuids not implemented")
}
func (UnimplementedProfileServiceServer) GetProfile(context.Context, *ProfileRequest) (*ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedProfileServiceServer) GetSkin(context.Context, *SkinRequest) (*SkinResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSkin not implemented")
}
func (UnimplementedProfileServiceServer) GetCape(context.Context, *CapeRequest) (*CapeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCape not implemented")
}
func (UnimplementedProfileServiceServer) GetHead(context.Context, *HeadRequest) (*HeadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHead not implemented")
}

// RegisterProfileServiceServer registers srv on s.
func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileService_ServiceDesc, srv)
}

func _ProfileService_GetUuid_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UuidRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetUuid(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetUuid",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetUuid(ctx, req.(*UuidRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_GetUuids_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UuidsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetUuids(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetUuids",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetUuids(ctx, req.(*UuidsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_GetProfile_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetProfile",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetProfile(ctx, req.(*ProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_GetSkin_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SkinRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetSkin(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetSkin",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetSkin(ctx, req.(*SkinRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_GetCape_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CapeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetCape(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetCape",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetCape(ctx, req.(*CapeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ProfileService_GetHead_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HeadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProfileServiceServer).GetHead(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetHead",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProfileServiceServer).GetHead(ctx, req.(*HeadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ProfileService_ServiceDesc is the grpc.ServiceDesc for the ProfileService.
// The service carries no protobuf descriptor; servers must force the json
// codec from this package.
var ProfileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUuid", Handler: _ProfileService_GetUuid_Handler},
		{MethodName: "GetUuids", Handler: _ProfileService_GetUuids_Handler},
		{MethodName: "GetProfile", Handler: _ProfileService_GetProfile_Handler},
		{MethodName: "GetSkin", Handler: _ProfileService_GetSkin_Handler},
		{MethodName: "GetCape", Handler: _ProfileService_GetCape_Handler},
		{MethodName: "GetHead", Handler: _ProfileService_GetHead_Handler},
	},
	Streams: []grpc.StreamDesc{},
}
