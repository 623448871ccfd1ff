package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/store"
	"github.com/philipparndt/armeasure/version"
)

// env is filled in before any subcommand runs
var env struct {
	cfg config.Config
	log *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:   "armeasure",
	Short: "Measure polygon perimeters and areas from placed 3D points",
	Long: `armeasure measures polygons traced by placing points in 3D space.
It computes perimeter and area of closed vertex loops, replays recorded
touch sessions through the measuring engine and keeps every captured
measurement in a local database.`,
	Version:           version.GetFullVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if env.log != nil {
			_ = env.log.Sync()
		}
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func setup(cmd *cobra.Command, args []string) error {
	v, err := config.New(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	env.cfg = cfg
	env.log = log
	log.Debug("configuration loaded",
		zap.String("db", cfg.DB),
		zap.Stringer("mode", cfg.Mode),
		zap.Stringer("projection", cfg.Projection),
		zap.Float64("close_threshold", cfg.CloseThreshold))
	return nil
}

func openStore() (*store.Store, error) {
	return store.Open(store.Options{Dir: env.cfg.DB, Logger: env.log})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
