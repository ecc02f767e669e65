package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/tanmayyjais/hostelMate-frontend/internal/api"
	"github.com/tanmayyjais/hostelMate-frontend/internal/identity"
	"github.com/tanmayyjais/hostelMate-frontend/internal/middleware"
	"github.com/tanmayyjais/hostelMate-frontend/internal/mockbackend"
	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
)

func newMockCmd() *cobra.Command {
	var addr, grpcAddr, usersFile string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run a local hostel API and assistant for development",
		Long: `Serve a stand-in for the hostel REST API and the assistant service:

  POST /api/auth/login            email/password sign in
  POST /api/auth/logout           revoke the bearer token
  GET  /api/users/me              profile of the bearer
  GET  /api/announcements         notice board
  POST /assistant/recognize-text  keyword bot over JSON
  gRPC hostelmate.assistant.v1    the same bot over gRPC

Accounts come from --users (YAML) or the built-in demo seeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closeLog, err := bootstrap(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("addr") {
				cfg.Mock.Addr = addr
			}
			if cmd.Flags().Changed("grpc-addr") {
				cfg.Mock.GRPCAddr = grpcAddr
			}
			if cmd.Flags().Changed("users") {
				cfg.Mock.UsersFile = usersFile
			}

			users, err := loadUsers(cfg.Mock.UsersFile)
			if err != nil {
				return err
			}
			bot := mockbackend.NewBot(log)
			tokens := identity.NewTokens(cfg.Mock.TokenTTL)

			r := chi.NewRouter()
			r.Use(chiMiddleware.RequestID)
			r.Use(chiMiddleware.RealIP)
			r.Use(chiMiddleware.Logger)
			r.Use(chiMiddleware.Recoverer)
			r.Use(chiMiddleware.Heartbeat("/health"))
			r.Use(middleware.CORS([]string{"*"}))
			api.NewHandler(users, tokens, bot, log).RegisterRoutes(r)

			srv := &http.Server{
				Addr:              cfg.Mock.Addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			lis, err := net.Listen("tcp", cfg.Mock.GRPCAddr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Mock.GRPCAddr, err)
			}
			gs := grpc.NewServer(nlu.ServerCodec())
			nlu.RegisterServer(gs, bot)

			errCh := make(chan error, 2)
			go func() {
				slog.Info("Mock API listening", "addr", srv.Addr, "users", users.Len())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("http server: %w", err)
				}
			}()
			go func() {
				slog.Info("Mock assistant gRPC listening", "addr", lis.Addr().String())
				if err := gs.Serve(lis); err != nil {
					errCh <- fmt.Errorf("grpc server: %w", err)
				}
			}()

			if cfg.Mock.UsersFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(
					"Demo accounts (password hostel123): student@hostel.test, admin@hostel.test, electrical@hostel.test, disabled@hostel.test"))
			}

			var runErr error
			select {
			case <-cmd.Context().Done():
			case runErr = <-errCh:
			}

			slog.Info("Shutting down gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Server forced to shutdown", "error", err)
			}
			gs.GracefulStop()

			slog.Info("Mock backend stopped")
			return runErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from HOSTELMATE_MOCK_ADDR)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (default from HOSTELMATE_MOCK_GRPC_ADDR)")
	cmd.Flags().StringVar(&usersFile, "users", "", "YAML users file (default: demo accounts)")
	return cmd
}

func loadUsers(path string) (*mockbackend.Directory, error) {
	if path == "" {
		return mockbackend.NewDirectory(mockbackend.DemoUsers())
	}
	return mockbackend.LoadDirectory(path)
}
