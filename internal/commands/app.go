// Package commands implements the hostelmate command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tanmayyjais/hostelMate-frontend/internal/backend"
	"github.com/tanmayyjais/hostelMate-frontend/internal/config"
	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/logger"
	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
	"github.com/tanmayyjais/hostelMate-frontend/internal/session"
	"github.com/tanmayyjais/hostelMate-frontend/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// app holds the dependencies shared by the client commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	api     *backend.Client
	session *session.Manager

	closers []func() error
}

// bootstrap loads configuration and builds the logger. Log records go to
// logOut unless a log file is configured.
func bootstrap(cmd *cobra.Command, logOut io.Writer) (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	log, closeLog, err := logger.New(cfg.Log, logOut)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, closeLog, nil
}

func newApp(cmd *cobra.Command, logOut io.Writer) (*app, error) {
	cfg, log, closeLog, err := bootstrap(cmd, logOut)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []func() error{closeLog}}

	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		a.store = store.NewMemory()
	} else {
		s, err := store.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open local store: %w", err)
		}
		a.store = s
	}
	a.closers = append(a.closers, a.store.Close)

	if err := a.store.Ping(cmd.Context()); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("local store health check: %w", err)
	}

	a.api = backend.New(backend.Options{
		BaseURL:           cfg.API.URL,
		Timeout:           cfg.API.Timeout,
		RetryMax:          cfg.API.RetryMax,
		RetryWaitMin:      cfg.API.RetryWaitMin,
		RetryWaitMax:      cfg.API.RetryWaitMax,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Logger:            log,
	})

	opts := []session.Option{session.WithLogger(log)}
	if cfg.API.RevokeOnLogout {
		opts = append(opts, session.WithRevoker(a.api))
	}
	a.session = session.NewManager(a.store, a.api, opts...)
	return a, nil
}

// restore loads the persisted session.
func (a *app) restore(ctx context.Context) (session.State, error) {
	if err := a.session.Restore(ctx); err != nil {
		return session.State{}, fmt.Errorf("restore session: %w", err)
	}
	return a.session.State(), nil
}

// requireSession restores the session and fails when nobody is signed in.
func (a *app) requireSession(ctx context.Context) (session.State, error) {
	st, err := a.restore(ctx)
	if err != nil {
		return st, err
	}
	if !st.Authenticated() {
		return st, a.explain(session.ErrNotAuthenticated)
	}
	return st, nil
}

// recognizer connects to the assistant service over the configured transport.
func (a *app) recognizer() (nlu.Recognizer, error) {
	if a.cfg.Assistant.Transport != config.TransportGRPC {
		return nlu.NewHTTPClient(a.cfg.Assistant.URL, a.cfg.Assistant.Timeout, a.log), nil
	}

	client, err := nlu.NewGrpcClient(nlu.DefaultGrpcClientConfig(a.cfg.Assistant.GRPCAddr), a.log)
	if err != nil {
		return nil, a.explain(err)
	}
	a.closers = append(a.closers, client.Close)
	return client, nil
}

// explain turns err into a message for the terminal.
func (a *app) explain(err error) error {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return errors.New("you are not signed in; run `hostelmate login` first")
	case errors.Is(err, session.ErrIncompleteLogin):
		return errors.New("the server response was incomplete, please try again")
	}

	msg := domain.UserMessage(err)
	if domain.KindOf(err) == domain.KindConnectivity && a.cfg.IsLocalAPI() {
		msg += "\nIs the local API running? Start it with `hostelmate mock`."
	}
	a.log.Debug("command failed", "error", err)
	return errors.New(msg)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func displayName(p domain.Profile) string {
	name, email := p.String("name"), p.String("email")
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	case email != "":
		return email
	default:
		return "unknown user"
	}
}
