package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/handler"
	"github.com/msto63/lox/internal/frontend/server"
	"github.com/msto63/lox/internal/frontend/service"
	"github.com/msto63/lox/pkg/core/health"
	"github.com/msto63/lox/pkg/core/logging"
	"github.com/msto63/lox/pkg/core/version"
	"github.com/spf13/cobra"
)

var (
	serveNoHTTP bool
	serveNoGRPC bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC and HTTP front-end service",
	Long: `Run the front-end service until SIGINT or SIGTERM.

Listeners:
  gRPC  lox.v1.Frontend/Scan, lox.v1.Frontend/Parse and grpc.health.v1
  HTTP  /healthz, /v1/scan, /v1/parse, /v1/runs, /v1/ws

Runs and logs are recorded when the store is enabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "do not start the HTTP listener")
	serveCmd.Flags().BoolVar(&serveNoGRPC, "no-grpc", false, "do not start the gRPC listener")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveNoHTTP && serveNoGRPC {
		return &exitError{code: ExitUsage, err: fmt.Errorf("--no-http and --no-grpc leave nothing to serve")}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.cfg
	logger := app.logger.WithField("component", "serve")
	logging.InstallGRPCLogger(app.logger, 0)

	if app.store != nil && cfg.Store.RetentionDays > 0 {
		n, err := app.store.Prune(ctx, time.Duration(cfg.Store.RetentionDays)*24*time.Hour)
		if err != nil {
			logger.WarnWithErr("Pruning history failed", err)
		} else if n > 0 {
			logger.Info("Pruned history", mdwlog.Fields{"deleted": n, "retention_days": cfg.Store.RetentionDays})
		}
	}

	svc := newService()
	registry := newHealthRegistry(svc)

	errCh := make(chan error, 2)

	var grpcServer *server.Server
	if !serveNoGRPC {
		grpcServer = server.New(server.Config{
			Host:             cfg.Server.Host,
			Port:             cfg.Server.Port,
			EnableReflection: cfg.Server.EnableReflection,
			MaxMessageSize:   cfg.Server.MaxMessageSize,
		}, svc, app.logger)
		go func() {
			if err := grpcServer.Start(); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		logger.Info("gRPC listening", mdwlog.Fields{"address": cfg.GRPCAddress()})
	}

	var httpServer *http.Server
	if !serveNoHTTP {
		hcfg := handler.DefaultConfig()
		if cfg.Frontend.MaxSourceBytes > 0 {
			hcfg.MaxBodyBytes = int64(cfg.Frontend.MaxSourceBytes) * 2
		}
		var runs handler.RunLister
		if app.store != nil {
			runs = app.store
		}
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddress(),
			Handler:           handler.NewHandler(hcfg, svc, runs, registry, app.logger),
			ReadHeaderTimeout: cfg.Server.ReadTimeout.Duration,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
		logger.Info("HTTP listening", mdwlog.Fields{"address": cfg.HTTPAddress()})
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-errCh:
		logger.ErrorWithErr("Listener failed", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WarnWithErr("HTTP shutdown incomplete", err)
		}
	}
	if grpcServer != nil {
		grpcServer.StopWithTimeout(shutdownCtx)
	}

	logger.Info("Stopped")
	return runErr
}

// newHealthRegistry checks that the engine parses and, when recording,
// that the store answers
func newHealthRegistry(svc *service.Service) *health.Registry {
	registry := health.NewRegistry(app.cfg.General.Name, version.Frontend)

	registry.Register(health.ErrorCheck("engine", true, func(ctx context.Context) error {
		resp, err := svc.Engine().Parse("1 + 2")
		if err != nil {
			return err
		}
		return resp.Err()
	}))

	if st := app.store; st != nil {
		registry.Register(health.ErrorCheck("store", false, st.Ping))
	}

	return registry
}
