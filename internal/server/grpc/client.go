package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls the authorization service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to target. Extra options are appended
// after the defaults.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(target, opts...)
}

func (c *Client) Authorize(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, "Authorize", in, opts)
}

func (c *Client) AuthorizeTelegram(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, "AuthorizeTelegram", in, opts)
}

func (c *Client) CheckAuthorization(ctx context.Context, in *CheckAuthorizationRequest, opts ...grpc.CallOption) (*CheckAuthorizationResponse, error) {
	return invoke[CheckAuthorizationResponse](ctx, c.cc, "CheckAuthorization", in, opts)
}

func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, "Refresh", in, opts)
}

func (c *Client) RefreshTelegram(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenPairResponse, error) {
	return invoke[TokenPairResponse](ctx, c.cc, "RefreshTelegram", in, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(protoCodec{})}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
