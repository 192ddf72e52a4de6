// Package server initializes and runs the authorization server.
// It selects the account store backend, builds the token codec and the
// authorization service, and serves HTTP and gRPC until a shutdown signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/auth"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/config"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/services"

	gs "github.com/dmitrijs2005/kontur-authorization/internal/server/grpc"
	hs "github.com/dmitrijs2005/kontur-authorization/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	authorizer *services.AuthorizationService
	tracer     *sdktrace.TracerProvider
	closers    []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, c.LogLevel).With("service", c.ServiceName, "env", c.Environment)

	app := &App{config: c, logger: logger}

	tp, err := app.initTracer(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracer init error: %w", err)
	}
	app.tracer = tp
	otel.SetTracerProvider(tp)

	repo, err := app.initStorage(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey))
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	app.authorizer = services.NewAuthorizationService(repo, codec, c, logger)
	return app, nil
}

// initTracer builds the tracer provider. Spans are batched to an OTLP/HTTP
// collector when an endpoint is configured and only sampled in-process
// otherwise.
func (app *App) initTracer(ctx context.Context) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", app.config.ServiceName),
		attribute.String("deployment.environment", app.config.Environment),
	)

	if app.config.OTLPEndpoint == "" {
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
	}

	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(app.config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	app.logger.Info(ctx, "Exporting traces", "endpoint", app.config.OTLPEndpoint)
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
}

// initStorage opens the configured account store and registers its
// cleanup with the app.
func (app *App) initStorage(ctx context.Context) (accounts.Repository, error) {
	switch app.config.StorageBackend {
	case config.StoragePostgres:
		db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, db.Close)

		m := repomanager.NewPostgresRepositoryManager()
		if err := m.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migrations error: %w", err)
		}
		return m.Accounts(db), nil

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		app.closers = append(app.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		return accounts.NewRedisRepository(rdb, app.config.RedisKeyPrefix), nil

	case config.StorageMemory:
		app.logger.Warn(ctx, "Using in-memory account store, state is lost on restart")
		return accounts.NewMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.StorageBackend)
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authorizer)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server error", "error", err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := hs.NewHandler(app.authorizer, app.logger, app.config.Domain)
	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, hs.NewRouter(h, app.config.Prefix, app.logger), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server error", "error", err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or either
// server fails, then releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error(ctx, "close error", "error", err.Error())
		}
	}
	app.closers = nil

	if app.tracer != nil {
		if err := app.tracer.Shutdown(ctx); err != nil {
			app.logger.Error(ctx, "tracer shutdown error", "error", err.Error())
		}
		app.tracer = nil
	}
}
