package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/usbq/internal/activation"
	"github.com/vk/usbq/internal/app"
	"github.com/vk/usbq/internal/engine"
)

// flags holds the values bound to the command-line flags.
type flags struct {
	configPaths     []string
	enable          []string
	disable         []string
	set             []string
	logLevel        string
	logFormat       string
	iterations      int
	eventTimeout    time.Duration
	healthcheckPort int
}

// config validates the flags and positional config paths into an app.Config.
func (f *flags) config(args []string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths:     append(append([]string(nil), f.configPaths...), args...),
		Enable:          f.enable,
		Disable:         f.disable,
		Set:             f.set,
		LogLevel:        strings.ToLower(f.logLevel),
		LogFormat:       strings.ToLower(f.logFormat),
		Iterations:      f.iterations,
		EventTimeout:    f.eventTimeout,
		HealthcheckPort: f.healthcheckPort,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// NewRootCommand builds the command tree. opts are passed to every App the
// commands construct.
func NewRootCommand(outW io.Writer, opts ...app.Option) *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "usbq",
		Short: "usbq - a pluggable USB traffic inspection pipeline",
		Long: `usbq activates a configured set of plugins and drives them through an
event loop: sources produce events, decoders describe them and loggers
record them.

Configuration is read from .hcl, .yaml and .yml files given with --config
or as positional CONFIG_PATH arguments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetOut(outW)
	rootCmd.SetErr(outW)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&f.configPaths, "config", "c", nil, "Path to a configuration file or directory. Repeatable.")
	pf.StringSliceVar(&f.enable, "enable", nil, "Activate additional plugins by name.")
	pf.StringSliceVar(&f.disable, "disable", nil, "Skip plugins by name.")
	pf.StringArrayVar(&f.set, "set", nil, "Override a plugin option: name.key=value. Repeatable.")
	pf.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	rootCmd.AddCommand(
		newRunCommand(outW, f, opts),
		newPluginsCommand(outW, f, opts),
		newCheckCommand(outW, f, opts),
	)
	return rootCmd
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW io.Writer, args []string, opts ...app.Option) error {
	cmd := NewRootCommand(outW, opts...)
	if args == nil {
		// cobra falls back to os.Args when args is nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newApp(cmd *cobra.Command, outW io.Writer, f *flags, args []string, opts []app.Option) (*app.App, error) {
	cfg, err := f.config(args)
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.Context(), outW, cfg, opts...)
}

func newRunCommand(outW io.Writer, f *flags, opts []app.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [CONFIG_PATH...]",
		Short: "Activate the configured plugins and run the event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, outW, f, args, opts)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "Stop after this many loop steps. 0 runs until interrupted.")
	cmd.Flags().DurationVar(&f.eventTimeout, "event-timeout", engine.DefaultEventTimeout, "Maximum wait for a single event.")
	cmd.Flags().IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func newPluginsCommand(outW io.Writer, f *flags, opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins [CONFIG_PATH...]",
		Short: "List the plugin registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, outW, f, args, opts)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tOPTIONAL\tAVAILABLE\tMODULE\tTYPE\tDESCRIPTION")
			for _, av := range a.Registry().CheckAvailability(a.Catalog()) {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%s\t%s\t%s\n", av.Name, av.Optional, av.Available, av.ModuleRef, av.TypeName, av.Description)
			}
			return tw.Flush()
		},
	}
}

func newCheckCommand(outW io.Writer, f *flags, opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "check [CONFIG_PATH...]",
		Short: "Activate the configured plugins without running the event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, outW, f, args, opts)
			if err != nil {
				return err
			}
			report, actErr := a.Activate(cmd.Context())
			printReport(outW, report)
			return errors.Join(actErr, a.Teardown(cmd.Context()))
		},
	}
}

func printReport(outW io.Writer, report *activation.Report) {
	if report == nil {
		return
	}
	tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tSTATE\tDETAIL")
	for _, o := range report.Outcomes {
		detail := ""
		if o.Err != nil {
			detail = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Name, o.State, detail)
	}
	tw.Flush()
}
