package nlu

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName         = "hostelmate.assistant.v1.Assistant"
	recognizeTextMethod = "/" + serviceName + "/RecognizeText"
)

var assistantServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Recognizer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RecognizeText",
			Handler:    recognizeTextHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hostelmate/assistant/v1/assistant.proto",
}

func recognizeTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Recognizer).RecognizeText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: recognizeTextMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Recognizer).RecognizeText(ctx, req.(*Request))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterServer exposes r as the assistant service on s. The server must be
// created with ServerCodec.
func RegisterServer(s grpc.ServiceRegistrar, r Recognizer) {
	s.RegisterService(&assistantServiceDesc, r)
}

// ServerCodec is the server option matching the client's wire codec.
func ServerCodec() grpc.ServerOption {
	return grpc.ForceServerCodec(jsonCodec{})
}
