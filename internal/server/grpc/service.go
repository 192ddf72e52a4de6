package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const serviceName = "authorization.v1.AuthorizationService"

type AuthorizeRequest struct {
	AccountID   int64  `json:"account_id" validate:"gte=0"`
	TwoFAStatus bool   `json:"two_fa_status"`
	Role        string `json:"role"`
}

type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// CheckAuthorizationRequest carries the access token. When AccessToken is
// empty the server falls back to the access_token metadata key.
type CheckAuthorizationRequest struct {
	AccessToken string `json:"access_token"`
}

type CheckAuthorizationResponse struct {
	AccountID   int64  `json:"account_id"`
	TwoFAStatus bool   `json:"two_fa_status"`
	Role        string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthorizationServer is the server API for the authorization service.
type AuthorizationServer interface {
	Authorize(context.Context, *AuthorizeRequest) (*TokenPairResponse, error)
	AuthorizeTelegram(context.Context, *AuthorizeRequest) (*TokenPairResponse, error)
	CheckAuthorization(context.Context, *CheckAuthorizationRequest) (*CheckAuthorizationResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenPairResponse, error)
	RefreshTelegram(context.Context, *RefreshRequest) (*TokenPairResponse, error)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unaryHandler[Req, Resp any](method string, call func(AuthorizationServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthorizationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthorizationServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthorizationServiceDesc describes the service for grpc.Server.RegisterService.
var AuthorizationServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authorize", Handler: unaryHandler("Authorize", AuthorizationServer.Authorize)},
		{MethodName: "AuthorizeTelegram", Handler: unaryHandler("AuthorizeTelegram", AuthorizationServer.AuthorizeTelegram)},
		{MethodName: "CheckAuthorization", Handler: unaryHandler("CheckAuthorization", AuthorizationServer.CheckAuthorization)},
		{MethodName: "Refresh", Handler: unaryHandler("Refresh", AuthorizationServer.Refresh)},
		{MethodName: "RefreshTelegram", Handler: unaryHandler("RefreshTelegram", AuthorizationServer.RefreshTelegram)},
	},
	Streams: []grpc.StreamDesc{},
}
