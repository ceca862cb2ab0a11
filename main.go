package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stevemurr/vitrine/admin"
	"github.com/stevemurr/vitrine/catalog"
	"github.com/stevemurr/vitrine/config"
	"github.com/stevemurr/vitrine/handler"
	"github.com/stevemurr/vitrine/logging"
	"github.com/stevemurr/vitrine/metrics"
	"github.com/stevemurr/vitrine/quote"
	"github.com/stevemurr/vitrine/store"
	"github.com/stevemurr/vitrine/waitlist"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// configFile is set by the --config flag.
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vitrine",
	Short:         "Vitrine serves the product site API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Seed the data directory and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.seed(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.serve(ctx)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default products and administrator, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.seed()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vitrine " + version)
	},
}

type app struct {
	cfg     config.Config
	log     *zap.Logger
	backend store.Backend
	svc     handler.Services
	metrics *metrics.Metrics
}

func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	backend, err := store.NewBackend(cfg.StoreBackend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("create store (backend=%s): %w", cfg.StoreBackend, err)
	}
	m := metrics.New()
	db := store.Open(backend, store.WithLogger(log.Named("store")), store.WithRecorder(m))

	wl, err := waitlist.NewService(db, 1, log)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		log:     log,
		backend: backend,
		metrics: m,
		svc: handler.Services{
			Catalog:  catalog.NewService(db, log),
			Quotes:   quote.NewService(db, log),
			Waitlist: wl,
			Admins:   admin.NewService(db, log),
		},
	}, nil
}

func (a *app) seed() error {
	if err := a.svc.Catalog.Seed(); err != nil {
		return err
	}
	return a.svc.Admins.Seed(a.cfg.AdminUser, a.cfg.AdminPass)
}

func (a *app) serve(ctx context.Context) error {
	h := handler.New(a.svc, handler.Options{
		Logger:         a.log,
		Metrics:        a.metrics,
		AllowedOrigins: a.cfg.AllowedOrigins,
		CookieSecure:   a.cfg.CookieSecure,
	})
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("vitrine starting",
			zap.String("addr", srv.Addr),
			zap.String("store", a.cfg.StoreBackend),
			zap.String("data", a.cfg.DataDir),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) close() {
	if c, ok := a.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
