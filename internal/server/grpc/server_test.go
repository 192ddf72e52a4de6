package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/auth"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/config"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/services"
)

// startBufServer serves az over an in-memory listener and returns a client.
func startBufServer(t *testing.T, az services.Authorizer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", logging.Nop{}, az)
	srv := s.newServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func newService(t *testing.T) (*services.AuthorizationService, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec([]byte("test-secret"))
	require.NoError(t, err)
	cfg := &config.Config{
		AccessTokenValidityDuration:          15 * time.Minute,
		RefreshTokenValidityDuration:         15 * time.Minute,
		TelegramRefreshTokenValidityDuration: 87600 * time.Hour,
	}
	return services.NewAuthorizationService(accounts.NewMemoryRepository(), codec, cfg, logging.Nop{}), codec
}

func TestAuthorizeCheckRefresh_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	client := startBufServer(t, svc)

	pair, err := client.Authorize(ctx, &AuthorizeRequest{AccountID: 42, TwoFAStatus: true, Role: "user"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(time.Now()))

	check, err := client.CheckAuthorization(ctx, &CheckAuthorizationRequest{AccessToken: pair.AccessToken})
	require.NoError(t, err)
	assert.Equal(t, &CheckAuthorizationResponse{AccountID: 42, TwoFAStatus: true, Role: "user"}, check)

	next, err := client.Refresh(ctx, &RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = client.Refresh(ctx, &RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAuthorizeTelegram_LongLivedRefresh(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	client := startBufServer(t, svc)

	std, err := client.Authorize(ctx, &AuthorizeRequest{AccountID: 1, Role: "user"})
	require.NoError(t, err)
	tg, err := client.AuthorizeTelegram(ctx, &AuthorizeRequest{AccountID: 2, Role: "user"})
	require.NoError(t, err)
	assert.True(t, tg.RefreshExpiresAt.After(std.RefreshExpiresAt.Add(24*time.Hour)))

	again, err := client.RefreshTelegram(ctx, &RefreshRequest{RefreshToken: tg.RefreshToken})
	require.NoError(t, err)
	assert.True(t, again.RefreshExpiresAt.After(std.RefreshExpiresAt.Add(24*time.Hour)))
}

func TestCheckAuthorization_TokenFromMetadata(t *testing.T) {
	svc, _ := newService(t)
	client := startBufServer(t, svc)

	pair, err := client.Authorize(context.Background(), &AuthorizeRequest{AccountID: 5, Role: "admin"})
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, pair.AccessToken)
	check, err := client.CheckAuthorization(ctx, &CheckAuthorizationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), check.AccountID)
	assert.Equal(t, "admin", check.Role)
}

func TestCheckAuthorization_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, codec := newService(t)
	client := startBufServer(t, svc)

	pair, err := client.Authorize(ctx, &AuthorizeRequest{AccountID: 5, Role: "user"})
	require.NoError(t, err)
	expired, err := codec.Encode(auth.NewClaimSet(auth.KindAccess, 5, false, "user", time.Now().Add(-time.Hour), time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"missing", "", "missing token"},
		{"garbage", "garbage", "token invalid"},
		{"refresh token", pair.RefreshToken, "token invalid"},
		{"expired", expired, "token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CheckAuthorization(ctx, &CheckAuthorizationRequest{AccessToken: tt.token})
			st := status.Convert(err)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}

func TestAuthorize_InvalidArgument(t *testing.T) {
	svc, _ := newService(t)
	client := startBufServer(t, svc)

	_, err := client.Authorize(context.Background(), &AuthorizeRequest{AccountID: -3})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

// errAuthorizer fails every call with err.
type errAuthorizer struct {
	err error
}

func (a errAuthorizer) IssueStandard(context.Context, int64, bool, string) (*services.TokenPair, error) {
	return nil, a.err
}

func (a errAuthorizer) IssueTelegram(context.Context, int64, bool, string) (*services.TokenPair, error) {
	return nil, a.err
}

func (a errAuthorizer) Verify(context.Context, string) (auth.ClaimSet, error) {
	return auth.ClaimSet{}, a.err
}

func (a errAuthorizer) VerifyAccess(context.Context, string) (auth.ClaimSet, error) {
	return auth.ClaimSet{}, a.err
}

func (a errAuthorizer) Refresh(context.Context, string, services.Family) (*services.TokenPair, error) {
	return nil, a.err
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"expired", common.ErrTokenExpired, codes.Unauthenticated},
		{"invalid", common.ErrInvalidToken, codes.Unauthenticated},
		{"kind mismatch", common.ErrTokenKindMismatch, codes.Unauthenticated},
		{"account not found", common.ErrAccountNotFound, codes.NotFound},
		{"validation", common.ErrorValidation, codes.InvalidArgument},
		{"store", errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.1")), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestRefresh_StoreFailureIsInternal(t *testing.T) {
	client := startBufServer(t, errAuthorizer{err: errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.1"))})

	_, err := client.RefreshTelegram(context.Background(), &RefreshRequest{RefreshToken: "x"})
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "10.0.0.1")
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, errAuthorizer{})
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("Refresh")}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	want := status.Error(codes.NotFound, "account not found")
	_, err = s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	assert.Equal(t, want, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, errAuthorizer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, errAuthorizer{})
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
