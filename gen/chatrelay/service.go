package chatrelay

import (
	"context"

	"google.golang.org/grpc"
)

// ChatRelayServer is the service interface spec.md §6 describes: three
// unary RPCs. Shaped exactly like a protoc-gen-go-grpc server interface
// so internal/rpc.Dispatcher can implement it directly.
type ChatRelayServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ReceiveMessage(context.Context, *ReceiveMessageRequest) (*ReceiveMessageResponse, error)
	SentMessages(context.Context, *SentMessagesRequest) (*SentMessagesResponse, error)
}

// ChatRelayClient is the client-side counterpart.
type ChatRelayClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	ReceiveMessage(ctx context.Context, in *ReceiveMessageRequest, opts ...grpc.CallOption) (*ReceiveMessageResponse, error)
	SentMessages(ctx context.Context, in *SentMessagesRequest, opts ...grpc.CallOption) (*SentMessagesResponse, error)
}

type chatRelayClient struct {
	cc grpc.ClientConnInterface
}

// NewChatRelayClient returns a client bound to cc, using the
// chatrelay-json codec negotiated via CallContentSubtype.
func NewChatRelayClient(cc grpc.ClientConnInterface) ChatRelayClient {
	return &chatRelayClient{cc: cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *chatRelayClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	err := c.cc.Invoke(ctx, "/chatrelay.ChatRelay/SendMessage", in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatRelayClient) ReceiveMessage(ctx context.Context, in *ReceiveMessageRequest, opts ...grpc.CallOption) (*ReceiveMessageResponse, error) {
	out := new(ReceiveMessageResponse)
	err := c.cc.Invoke(ctx, "/chatrelay.ChatRelay/ReceiveMessage", in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatRelayClient) SentMessages(ctx context.Context, in *SentMessagesRequest, opts ...grpc.CallOption) (*SentMessagesResponse, error) {
	out := new(SentMessagesResponse)
	err := c.cc.Invoke(ctx, "/chatrelay.ChatRelay/SentMessages", in, out, callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatRelayServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chatrelay.ChatRelay/SendMessage"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatRelayServer).SendMessage(ctx, req.(*SendMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func receiveMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReceiveMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatRelayServer).ReceiveMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chatrelay.ChatRelay/ReceiveMessage"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatRelayServer).ReceiveMessage(ctx, req.(*ReceiveMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sentMessagesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SentMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatRelayServer).SentMessages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/chatrelay.ChatRelay/SentMessages"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatRelayServer).SentMessages(ctx, req.(*SentMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for ChatRelay, built by hand in the
// same shape protoc-gen-go-grpc emits.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chatrelay.ChatRelay",
	HandlerType: (*ChatRelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: sendMessageHandler},
		{MethodName: "ReceiveMessage", Handler: receiveMessageHandler},
		{MethodName: "SentMessages", Handler: sentMessagesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatrelay.proto",
}

// RegisterChatRelayServer registers srv against s.
func RegisterChatRelayServer(s grpc.ServiceRegistrar, srv ChatRelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}
