package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ecom-admin/auth"
	"ecom-admin/config"
	"ecom-admin/controllers"
	"ecom-admin/database"
	graphqlserver "ecom-admin/graphql_server"
	grpcserver "ecom-admin/grpc_server"
	"ecom-admin/metrics"
	"ecom-admin/registry"
	"ecom-admin/repositories"
	"ecom-admin/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.UsingDevelopmentSecret {
		logger.Warn("JWT_SECRET is not set, using the development-only signing secret", zap.String("app_env", cfg.AppEnv))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.Seed(ctx, db, database.SeedOptions{Development: cfg.IsDevelopment()}, logger); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	m := metrics.New()
	m.Registry().MustRegister(collectors.NewDBStatsCollector(sqlDB, "ecom_admin"))

	tokens, err := auth.NewTokenService([]byte(cfg.JwtSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	adminUserRepo := repositories.NewAdminUserRepository(db)
	dir := services.NewDirectory(repositories.NewDirectoryRepository(db), adminUserRepo)
	authz := services.NewAuthorizationService(tokens, services.NewPermissionResolver(dir), dir, m, logger)
	adminUserService := services.NewAdminUserService(adminUserRepo)
	userService := services.NewUserService(repositories.NewUserRepository(db))

	schema, err := graphqlserver.NewSchema(graphqlserver.Dependencies{
		Authorization: authz,
		AdminUsers:    adminUserService,
		Users:         userService,
		Tokens:        tokens,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}

	authorizer := controllers.NewAuthorizer(authz, logger)
	container := controllers.NewContainer(controllers.ContainerOptions{
		Controllers: []controllers.RouteRegistrar{
			controllers.NewAuthController(authz, tokens.TTL(), logger),
			controllers.NewAdminUserController(adminUserService, authorizer, logger),
			controllers.NewUserController(userService, authorizer, logger),
		},
		DB:             db,
		Metrics:        m,
		GraphQL:        graphqlserver.NewHandler(schema, logger),
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           container,
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer, healthServer := grpcserver.NewServer(authz, tokens, logger)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddress, err)
	}

	if cfg.Consul.Address != "" {
		deregister, err := registerWithConsul(cfg, logger)
		if err != nil {
			logger.Warn("Consul registration failed", zap.Error(err))
		} else {
			defer deregister()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("address", cfg.BindAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("address", cfg.GRPCAddress))
		return grpcServer.Serve(grpcListener)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// registerWithConsul registers the HTTP and gRPC endpoints and returns a function that
// removes both registrations.
func registerWithConsul(cfg *config.Config, logger *zap.Logger) (func(), error) {
	reg, err := registry.NewConsulRegistry(cfg.Consul.Address, logger.Sugar())
	if err != nil {
		return nil, err
	}

	httpHost, httpPort, err := splitHostPort(cfg.BindAddress)
	if err != nil {
		return nil, err
	}
	grpcHost, grpcPort, err := splitHostPort(cfg.GRPCAddress)
	if err != nil {
		return nil, err
	}

	instance := uuid.NewString()
	httpID := fmt.Sprintf("%s-http-%s", cfg.ServiceName, instance)
	grpcID := fmt.Sprintf("%s-grpc-%s", cfg.ServiceName, instance)

	httpCheck := registry.CreateHTTPCheck(httpID, httpHost, httpPort, "/healthz", "10s", "2s")
	if err := reg.Register(httpID, cfg.ServiceName, httpHost, httpPort, []string{"http"}, httpCheck); err != nil {
		return nil, err
	}
	grpcCheck := registry.CreateGRPCCheck(grpcID, cfg.GRPCAddress, "10s", "2s", false)
	if err := reg.Register(grpcID, cfg.ServiceName+"-grpc", grpcHost, grpcPort, []string{"grpc"}, grpcCheck); err != nil {
		_ = reg.Deregister(httpID)
		return nil, err
	}

	return func() {
		_ = reg.Deregister(httpID)
		_ = reg.Deregister(grpcID)
	}, nil
}

func splitHostPort(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, fmt.Errorf("parse address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse port of %q: %w", address, err)
	}
	return host, port, nil
}
