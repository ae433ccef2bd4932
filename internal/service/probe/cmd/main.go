package main

import (
	"fmt"
	"os"

	"github.com/jtougas/lost-connection/internal/pkg/config"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags holds the flags shared by every command
type rootFlags struct {
	configFile string
	host       string
	port       int
	count      int
	timeout    string
	logLevel   string
}

// source turns the flags that were set into a config Source
func (f *rootFlags) source(cmd *cobra.Command) config.Source {
	overrides := make(map[string]any)
	set := func(name, key string, value any) {
		if cmd.Flags().Changed(name) {
			overrides[key] = value
		}
	}
	set("host", "probe.host", f.host)
	set("port", "probe.port", f.port)
	set("count", "probe.count", f.count)
	set("timeout", "probe.timeout", f.timeout)
	set("log-level", "logger.level", f.logLevel)

	return config.Source{
		File:      f.configFile,
		Overrides: overrides,
	}
}

// newRootCmd creates and configures the root command
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "lost-connection",
		Short:         "SSH probe with correlation chains",
		Long:          `Probes an SSH server with concurrent, time-bounded logins. Every log line carries the correlation chain of the work that wrote it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "path to config file")
	pf.StringVar(&flags.host, "host", "", "SSH host to probe")
	pf.IntVar(&flags.port, "port", 0, "SSH port to probe")
	pf.IntVar(&flags.count, "count", 0, "number of concurrent probes per round")
	pf.StringVar(&flags.timeout, "timeout", "", "per-probe timeout, e.g. 3s")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newWatchCmd(flags))
	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
