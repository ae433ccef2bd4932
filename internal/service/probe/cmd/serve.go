package main

import (
	"fmt"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/service/probe"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// newServeCmd creates the serve command
func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the probe HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(flags.source(cmd))
		},
	}
}

// runServer starts the HTTP server and blocks until interrupted
func runServer(src config.Source) error {
	var cfg *config.Config

	app := fx.New(
		config.WithSource(src),
		probe.ProbeServerApp,
		fx.NopLogger,
		fx.Populate(&cfg),
	)

	if err := startApp(app, "probe server"); err != nil {
		return err
	}

	fmt.Printf("Probe server started successfully on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	<-app.Done()

	return stopApp(app, "probe server")
}
