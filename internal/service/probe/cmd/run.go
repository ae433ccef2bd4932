package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/correlation"
	"github.com/jtougas/lost-connection/internal/service/probe"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// newRunCmd creates the run command
func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one probe round and exit",
		Long:  `Runs one round of concurrent probes. Exits non-zero when any probe fails or times out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRound(flags.source(cmd))
		},
	}
}

// runRound runs a single probe round inside its own correlation scope
func runRound(src config.Source) error {
	var (
		svc    *probe.Service
		scoper *correlation.Scoper
	)

	app := fx.New(
		config.WithSource(src),
		probe.ProbeApp,
		fx.NopLogger,
		fx.Populate(&svc, &scoper),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := startApp(app, "probe"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, roundErr := correlation.ScopeWith(scoper, svc.Round)(ctx)
	for _, o := range outcomes {
		fmt.Printf("%-10s %-8s %-12s %s\n", o.TaskID, o.Status, o.Duration.Round(time.Millisecond), o.CorrelationID)
	}

	if err := stopApp(app, "probe"); err != nil {
		return err
	}
	return roundErr
}
