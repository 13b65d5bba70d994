package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/metrics"
	"github.com/anirudhqwerty/kastack-project/models"
	"github.com/anirudhqwerty/kastack-project/notify"
	"github.com/anirudhqwerty/kastack-project/pipeline"
	"github.com/anirudhqwerty/kastack-project/router"
	"github.com/anirudhqwerty/kastack-project/scheduler"
)

const shutdownTimeout = 30 * time.Second

func main() {
	setupLogging()

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading env file", "error", err)
		os.Exit(1)
	}

	// Canceled on Ctrl-C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs a text handler on terminals and JSON otherwise.
func setupLogging() {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

func newRootCmd() *cobra.Command {
	var cfg cliparse.Config

	root := &cobra.Command{
		Use:           "olist-etl",
		Short:         "Batch ETL and read API for the Olist e-commerce dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cliparse.Resolve(&cfg)
		},
	}
	cliparse.RegisterFlags(root.PersistentFlags(), &cfg)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the API and run the pipeline on a schedule",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run the pipeline once and print the run summary",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Create the live tables if they do not exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := db.Open(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer d.Close()

				if err := db.CreateSchema(cmd.Context(), d); err != nil {
					return err
				}
				slog.Info("Database schema ready")
				return nil
			},
		},
	)

	return root
}

// runOnce runs the pipeline and prints its summary. A failed run is
// returned as the command error.
func runOnce(ctx context.Context, cfg cliparse.Config) error {
	d, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	publisher, err := notify.New(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	runner := pipeline.New(cfg, d, pipeline.WithPublisher(publisher))
	summary, runErr := runner.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return errors.Wrap(err, "writing run summary")
	}
	return runErr
}

func serve(ctx context.Context, cfg cliparse.Config) error {
	d, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := db.CreateSchema(ctx, d); err != nil {
		return err
	}
	slog.Info("Database schema ready")

	publisher, err := notify.New(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	runner := pipeline.New(cfg, d, pipeline.WithMetrics(m), pipeline.WithPublisher(publisher))

	sched := scheduler.New(runner, cfg)
	if err := sched.Start(); err != nil {
		return err
	}
	startup := make(chan struct{})
	if cfg.RunOnStart {
		go func() {
			defer close(startup)
			// Failures are logged by the runner and kept in the history.
			_, _ = sched.Trigger(ctx, models.TriggerStartup)
		}()
	} else {
		close(startup)
	}

	server := http.Server{
		Handler:           router.NewRouter(d, sched.History(), m),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "port", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	// Wait for Ctrl-C signal or a listener failure
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = sched.Stop(context.Background())
			return errors.Wrap(err, "server closed")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Warn("scheduler stop", "error", err)
	}
	select {
	case <-startup:
	case <-shutdownCtx.Done():
	}
	slog.Info("Server closed")
	return nil
}
