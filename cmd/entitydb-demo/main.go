// Command entitydb-demo exercises the kernel end to end: entity creation
// and destruction, attaching and removing objects, automanaged concepts,
// query, and apply_changes/optimize against a scratch in-memory database.
// No subcommand calls Require or ForEach directly.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/obs"
)

var (
	configPath  string
	showMetrics bool
	db          *entityDB
	meterProv   *sdkmetric.MeterProvider
)

var rootCmd = &cobra.Command{
	Use:   "entitydb-demo",
	Short: "Exercise the entitydb kernel from the command line",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupMetrics(); err != nil {
			return err
		}
		return openDB()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "entitydb.yaml", "path to an optional YAML config file")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print kernel.Int64UpDownCounter/Histogram readings to stderr on exit")
	rootCmd.AddCommand(
		createEntityCmd,
		addCounterCmd,
		addLabelCmd,
		removeCounterCmd,
		destroyEntityCmd,
		listCountersCmd,
		exportCmd,
		printCmd,
		applyChangesCmd,
		optimizeCmd,
	)
}

// main recovers an *assert.Violation and turns it into a diagnostic plus
// os.Exit(1): every kernel error is a programming error, never a value
// this CLI could meaningfully continue past.
func main() {
	defer func() {
		if v, ok := assert.Recover(recover()); ok {
			fmt.Fprintln(os.Stderr, v.Error())
			os.Exit(1)
		}
	}()
	err := rootCmd.Execute()
	if meterProv != nil {
		_ = meterProv.Shutdown(context.Background())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "entitydb-demo:", err)
		os.Exit(1)
	}
}

// setupMetrics installs the kernel's otel.Meter provider when --metrics is
// set, exporting to stderr on shutdown; the kernel's own instruments
// (internal/kernel/metrics.go) are safe to record against the default no-op
// provider, so this is strictly opt-in.
func setupMetrics() error {
	if !showMetrics || meterProv != nil {
		return nil
	}
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return fmt.Errorf("setting up metrics exporter: %w", err)
	}
	meterProv = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(meterProv)
	return nil
}

func openDB() error {
	if db != nil {
		return nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	opened, err := newEntityDB(cfg, obs.New(nil))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db = opened
	return nil
}
