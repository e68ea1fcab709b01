// Command filmdev develops scanned film negatives and slides from the
// command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/filmdev-mcp/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app carries state shared by the subcommands.
type app struct {
	cfg      config.Config
	logLevel string
	log      *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Log output goes to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{}
	cfg, envErrs := config.FromEnv()
	a.cfg = cfg

	root := &cobra.Command{
		Use:          "filmdev",
		Short:        "Develop scanned film negatives and slides",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := a.cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				lvl, err := logrus.ParseLevel(a.logLevel)
				if err != nil {
					return err
				}
				level = lvl
			}
			a.log = config.NewLogger(level)
			a.log.SetOutput(logOut)
			for _, err := range envErrs {
				a.log.WithError(err).Warn("Ignoring invalid setting")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", a.cfg.LogLevel.String(), "log level (debug, info, warn, error)")

	root.AddCommand(
		newDevelopCmd(a),
		newPresetsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "filmdev %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
