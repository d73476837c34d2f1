package quizv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	QuizService_GetRoom_FullMethodName     = "/wordquiz.v1.QuizService/GetRoom"
	QuizService_JoinRoom_FullMethodName    = "/wordquiz.v1.QuizService/JoinRoom"
	QuizService_LeaveRoom_FullMethodName   = "/wordquiz.v1.QuizService/LeaveRoom"
	QuizService_SubmitGuess_FullMethodName = "/wordquiz.v1.QuizService/SubmitGuess"
)

// QuizServiceServer is the participant-facing API.
type QuizServiceServer interface {
	GetRoom(context.Context, *GetRoomRequest) (*GetRoomResponse, error)
	JoinRoom(context.Context, *JoinRoomRequest) (*JoinRoomResponse, error)
	LeaveRoom(context.Context, *LeaveRoomRequest) (*LeaveRoomResponse, error)
	SubmitGuess(context.Context, *SubmitGuessRequest) (*SubmitGuessResponse, error)
}

func RegisterQuizServiceServer(s grpc.ServiceRegistrar, srv QuizServiceServer) {
	s.RegisterService(&QuizService_ServiceDesc, srv)
}

var QuizService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wordquiz.v1.QuizService",
	HandlerType: (*QuizServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRoom",
			Handler:    unaryHandler(QuizService_GetRoom_FullMethodName, QuizServiceServer.GetRoom),
		},
		{
			MethodName: "JoinRoom",
			Handler:    unaryHandler(QuizService_JoinRoom_FullMethodName, QuizServiceServer.JoinRoom),
		},
		{
			MethodName: "LeaveRoom",
			Handler:    unaryHandler(QuizService_LeaveRoom_FullMethodName, QuizServiceServer.LeaveRoom),
		},
		{
			MethodName: "SubmitGuess",
			Handler:    unaryHandler(QuizService_SubmitGuess_FullMethodName, QuizServiceServer.SubmitGuess),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// unaryHandler has the shape grpc.MethodDesc.Handler expects.
func unaryHandler[Req, Resp any](fullMethod string, call func(QuizServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QuizServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QuizServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type QuizServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQuizServiceClient(cc grpc.ClientConnInterface) *QuizServiceClient {
	return &QuizServiceClient{cc: cc}
}

func (c *QuizServiceClient) GetRoom(ctx context.Context, in *GetRoomRequest, opts ...grpc.CallOption) (*GetRoomResponse, error) {
	out := new(GetRoomResponse)
	if err := c.invoke(ctx, QuizService_GetRoom_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) JoinRoom(ctx context.Context, in *JoinRoomRequest, opts ...grpc.CallOption) (*JoinRoomResponse, error) {
	out := new(JoinRoomResponse)
	if err := c.invoke(ctx, QuizService_JoinRoom_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) LeaveRoom(ctx context.Context, in *LeaveRoomRequest, opts ...grpc.CallOption) (*LeaveRoomResponse, error) {
	out := new(LeaveRoomResponse)
	if err := c.invoke(ctx, QuizService_LeaveRoom_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) SubmitGuess(ctx context.Context, in *SubmitGuessRequest, opts ...grpc.CallOption) (*SubmitGuessResponse, error) {
	out := new(SubmitGuessResponse)
	if err := c.invoke(ctx, QuizService_SubmitGuess_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuizServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
