package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmez/redisflow/internal/command"
	"github.com/cosmez/redisflow/internal/config"
	"github.com/cosmez/redisflow/internal/conn"
	"github.com/cosmez/redisflow/internal/output"
)

var version = "dev" // set at build time via -ldflags "-X main.version=..."

type flags struct {
	cfg     config.Config
	command string
	verbose bool
	noColor bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:          "redisflow",
		Short:        "A pipelining Redis client",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.cfg.Validate(); err != nil {
				return err
			}
			if f.noColor {
				color.NoColor = true
			}

			log, err := newLogger(f.verbose)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if f.command != "" {
				return runOneShot(cmd.Context(), f, log)
			}
			return runRepl(cmd.Context(), f, log)
		},
	}

	f.cfg.BindFlags(cmd.Flags())
	cmd.Flags().StringVarP(&f.command, "command", "c", "", "Execute a single command and exit")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log connection events to stderr")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable coloured output")
	return cmd
}

// newLogger returns a development logger on stderr when verbose, and a
// no-op logger otherwise so the REPL output stays clean.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func runOneShot(ctx context.Context, f *flags, log *zap.Logger) error {
	c, err := conn.Dial(ctx, f.cfg, conn.WithLogger(log))
	if err != nil {
		return err
	}
	defer c.Close()

	s := newSession(c, command.NewRegistry(), log)
	s.color = false

	parsed, err := command.Parse(f.command, s.reg, c.Encoder())
	if err != nil {
		return err
	}
	if parsed.Frame == nil {
		return fmt.Errorf("empty command")
	}

	// One-shot runs are scripted, so no confirmation prompt and no timeout.
	vals, err := c.Exec(ctx, parsed.Frame)
	if err != nil {
		return err
	}
	if parsed.Pipe != "" {
		return output.Pipe(os.Stdout, vals[0], parsed.Pipe)
	}
	opts, err := s.printOpts(parsed.Modifier)
	if err != nil {
		return err
	}
	output.PrintValue(os.Stdout, vals[0], opts)
	return nil
}
