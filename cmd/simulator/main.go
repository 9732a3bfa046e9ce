package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	storagesystem "github.com/NikodemGapski/storage-system"
	"github.com/NikodemGapski/storage-system/internal/config"
	"github.com/NikodemGapski/storage-system/internal/metrics"
	"github.com/NikodemGapski/storage-system/internal/server"
	"github.com/NikodemGapski/storage-system/internal/simulation"
	"github.com/NikodemGapski/storage-system/pkg/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Randomized transfer workload driver for the storage system",
	Long: `simulator loads a device topology and workload description from a
YAML file, then drives the storage system with concurrent randomized
transfers while serving Prometheus metrics.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/simulator.yaml", "path to simulator configuration")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.Int("devices", len(cfg.Topology.Devices)),
		zap.Int("components", len(cfg.Topology.Placement)),
		zap.Int("transfers", cfg.Workload.Transfers),
		zap.Int("workers", cfg.Workload.Workers))

	met := metrics.NewMetrics()

	capacities := make(map[storage.DeviceID]int, len(cfg.Topology.Devices))
	for id, capacity := range cfg.Topology.Devices {
		capacities[storage.DeviceID(id)] = capacity
	}
	placement := make(map[storage.ComponentID]storage.DeviceID, len(cfg.Topology.Placement))
	for component, device := range cfg.Topology.Placement {
		placement[storage.ComponentID(component)] = storage.DeviceID(device)
	}

	sys, err := storagesystem.NewWithMetrics(capacities, placement, logger, met)
	if err != nil {
		return fmt.Errorf("failed to build storage system: %w", err)
	}

	if cfg.Metrics.Enabled {
		srv := server.NewMetricsServer(cfg.Metrics.Port, met, logger)
		srv.Start()
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Error("Failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	workload := simulation.NewWorkload(sys, cfg, logger)
	g.Go(func() error {
		return workload.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("workload failed: %w", err)
	}
	return nil
}

// initLogger builds the zap logger described by the logging configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
