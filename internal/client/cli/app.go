// Package cli implements the authorization command-line client. It issues,
// checks and refreshes tokens against the server's gRPC endpoint and prints
// each response as JSON.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/kontur-authorization/internal/client/config"
	gs "github.com/dmitrijs2005/kontur-authorization/internal/server/grpc"
)

// ErrUsage is returned for an unknown subcommand or malformed arguments.
var ErrUsage = errors.New("usage: client [-a addr] [-T seconds] authorize|check|refresh [flags]")

// AuthorizationClient is the subset of the gRPC client the CLI needs.
type AuthorizationClient interface {
	Authorize(ctx context.Context, in *gs.AuthorizeRequest, opts ...grpc.CallOption) (*gs.TokenPairResponse, error)
	AuthorizeTelegram(ctx context.Context, in *gs.AuthorizeRequest, opts ...grpc.CallOption) (*gs.TokenPairResponse, error)
	CheckAuthorization(ctx context.Context, in *gs.CheckAuthorizationRequest, opts ...grpc.CallOption) (*gs.CheckAuthorizationResponse, error)
	Refresh(ctx context.Context, in *gs.RefreshRequest, opts ...grpc.CallOption) (*gs.TokenPairResponse, error)
	RefreshTelegram(ctx context.Context, in *gs.RefreshRequest, opts ...grpc.CallOption) (*gs.TokenPairResponse, error)
}

type App struct {
	config *config.Config
	client AuthorizationClient
	out    io.Writer
}

func NewApp(c *config.Config, client AuthorizationClient, out io.Writer) *App {
	return &App{config: c, client: client, out: out}
}

// Run executes one subcommand. args starts with the subcommand name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	var (
		resp any
		err  error
	)
	switch args[0] {
	case "authorize":
		resp, err = a.authorize(ctx, args[1:])
	case "check":
		resp, err = a.check(ctx, args[1:])
	case "refresh":
		resp, err = a.refresh(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func (a *App) authorize(ctx context.Context, args []string) (any, error) {
	fs := newFlagSet("authorize")
	id := fs.Int64("id", -1, "account id")
	role := fs.String("role", "", "account role")
	twoFA := fs.Bool("2fa", false, "two-factor status")
	tg := fs.Bool("tg", false, "issue under the Telegram policy")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *id < 0 {
		return nil, fmt.Errorf("%w: -id is required", ErrUsage)
	}

	req := &gs.AuthorizeRequest{AccountID: *id, TwoFAStatus: *twoFA, Role: *role}
	if *tg {
		return a.client.AuthorizeTelegram(ctx, req)
	}
	return a.client.Authorize(ctx, req)
}

func (a *App) check(ctx context.Context, args []string) (any, error) {
	fs := newFlagSet("check")
	token := fs.String("token", "", "access token")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return a.client.CheckAuthorization(ctx, &gs.CheckAuthorizationRequest{AccessToken: *token})
}

func (a *App) refresh(ctx context.Context, args []string) (any, error) {
	fs := newFlagSet("refresh")
	token := fs.String("token", "", "refresh token")
	tg := fs.Bool("tg", false, "refresh under the Telegram policy")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *token == "" {
		return nil, fmt.Errorf("%w: -token is required", ErrUsage)
	}

	req := &gs.RefreshRequest{RefreshToken: *token}
	if *tg {
		return a.client.RefreshTelegram(ctx, req)
	}
	return a.client.Refresh(ctx, req)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
