package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skufu/glucocheck/internal/backend"
	"github.com/Skufu/glucocheck/internal/config"
	"github.com/Skufu/glucocheck/internal/logger"
	"github.com/Skufu/glucocheck/internal/store"
)

// app carries what the commands share. Tests fill store and client before
// Execute so setup leaves them alone.
type app struct {
	profile string
	verbose bool
	now     func() time.Time

	log    *zap.Logger
	store  store.Store
	client *backend.Client
}

func main() {
	a := &app{now: time.Now}
	rootCmd := newRootCmd(a)
	err := rootCmd.Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "glucoctl",
		Short:         "Diabetes risk self-assessment from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.profile, "profile", "default", "History profile to read and write")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log backend calls")

	rootCmd.AddCommand(
		newFieldsCmd(),
		newAnnotateCmd(),
		newAssessCmd(a),
		newBMICmd(),
		newCheckCmd(),
		newHistoryCmd(a),
		newReportCmd(a),
		newThemeCmd(a),
		newDatasetCmd(a),
	)
	return rootCmd
}

// setup loads configuration and opens the store and backend client. Commands
// that only classify values never call it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.store != nil && a.client != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	if a.log, err = logger.New(level, "console", "glucoctl"); err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	if a.store == nil {
		if a.store, err = store.Open(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
	}
	if a.client == nil {
		a.client = backend.New(cfg.BackendURL, cfg.BackendTimeout, a.log)
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
