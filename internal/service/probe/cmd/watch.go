package main

import (
	"fmt"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/service/probe"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// newWatchCmd creates the watch command
func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run probe rounds on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(flags.source(cmd))
		},
	}
}

// runWatch runs the scheduled watcher until interrupted
func runWatch(src config.Source) error {
	var cfg *config.Config

	app := fx.New(
		config.WithSource(src),
		probe.ProbeWatchApp,
		fx.NopLogger,
		fx.Populate(&cfg),
	)

	if err := startApp(app, "probe watcher"); err != nil {
		return err
	}

	fmt.Printf("Probe watcher started (schedule %q)\n", cfg.Schedule.Spec)
	<-app.Done()

	return stopApp(app, "probe watcher")
}
