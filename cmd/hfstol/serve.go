package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/cli"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/config"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/logging"
	httpadapter "github.com/UAlbertaALTLab/hfst-altlab/pkg/adapters/http"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lookup HTTP server",
	Long: `Starts the lookup service as an HTTP server. Transducers, cache,
budgets and listen address come from the configuration file and
environment (see --config and CONFIG_PATH).`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "Path to the YAML configuration file")
}

func runServe(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadServeConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := serveLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	sigCtx := cli.NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	svc, err := cli.NewService(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.Transducers.Watch {
		watcher, err := cli.NewWatcher(svc.WatchPaths(), svc.Reload, logger)
		if err != nil {
			return fmt.Errorf("watch transducers: %w", err)
		}
		watcher.Start(sigCtx)
		defer watcher.Stop()
	}

	handler := httpadapter.NewHandler(svc.Provider(),
		httpadapter.WithLogger(logger),
		httpadapter.WithMetricsHandler(svc.Metrics().Handler()),
		httpadapter.WithInfoFunc(func() httpadapter.Info { return serviceInfo(svc) }),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "analyser", cfg.Transducers.Analyser)
		serverErrors <- srv.ListenAndServe()
	}()

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		logger.Info("shutdown started", "signal", fmt.Sprint(sigCtx.Signal()))

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete, forcing close", "timeout", cfg.Server.ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
		logger.Info("server stopped")
		return nil
	}
}

func loadServeConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func serveLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// serviceInfo snapshots the loaded models, so the info endpoint follows
// hot reloads.
func serviceInfo(svc *cli.Service) httpadapter.Info {
	info := httpadapter.Info{
		App:     "hfstol",
		Version: strings.TrimSpace(hfstol.Version),
	}
	analyser, generator := svc.Transducers()
	info.Transducers = append(info.Transducers, describeTransducer("analyser", analyser))
	if generator != nil {
		info.Transducers = append(info.Transducers, describeTransducer("generator", generator))
	}
	return info
}

func describeTransducer(role string, t *hfstol.Transducer) httpadapter.TransducerInfo {
	return httpadapter.TransducerInfo{
		Role:        role,
		Source:      t.Source(),
		Fingerprint: t.Fingerprint(),
		Weighted:    t.Weighted(),
		States:      t.StateCount(),
	}
}
