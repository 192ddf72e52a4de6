// Package grpc exposes the authorization service over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/services"
)

type GRPCServer struct {
	address    string
	authorizer services.Authorizer
	logger     logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, az services.Authorizer) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		authorizer: az,
	}
}

// newServer creates the gRPC server with the service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(protoCodec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor),
	)
	srv.RegisterService(&AuthorizationServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
