package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/telebroad/rftp/config"
	"github.com/telebroad/rftp/filesystem"
	"github.com/telebroad/rftp/ftp"
	"github.com/telebroad/rftp/ftp/ftpusers"
	"github.com/telebroad/rftp/httphandler"
	"github.com/telebroad/rftp/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the FTP server",
	Long: `Start the FTP server in the foreground with the specified configuration.

Examples:
  # Start with ./rftp.yaml or /etc/rftp/rftp.yaml
  rftp start

  # Start with a custom config file
  rftp start --config /etc/rftp/custom.yaml

  # Start with environment variable overrides
  RFTP_LOGGING_LEVEL=DEBUG RFTP_SERVER_ADDR=:2121 rftp start`,
	RunE: runStart,
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("Logger initialized", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	users, err := ftpusers.LoadFile(cfg.Users.File)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	logger.Info("Users loaded", "file", cfg.Users.File, "count", users.Len())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, users, logger)
}

// serve runs the FTP server, and the metrics server when enabled, until
// ctx is done or the listener fails.
func serve(ctx context.Context, cfg *config.Config, users ftpusers.Users, logger *slog.Logger) error {
	root := filesystem.NewRoot(cfg.Server.Root)
	ftpServer := ftp.NewServer(cfg.Server.Addr, cfg.Server.ServerInfo(), users, root)
	ftpServer.SetLogger(logger)

	var metricsServer *httphandler.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		ftpServer.SetMetrics(metrics.NewMetrics(reg))

		h := httphandler.NewHandler(reg, ftpServer.Status().ActiveConnections)
		h.SetLogger(logger)
		metricsServer = httphandler.NewServer(cfg.Metrics.Addr, h)
		if err := metricsServer.TryListenAndServe(time.Second); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info("Metrics server started", "addr", cfg.Metrics.Addr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("FTP server starting", "addr", cfg.Server.Addr, "root", cfg.Server.Root)
		err := ftpServer.ListenAndServe()
		if errors.Is(err, ftp.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := ftpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("ftp server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
