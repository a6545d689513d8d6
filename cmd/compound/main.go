package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mgomes/compound/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type cliOptions struct {
	verbose   bool
	logFormat string
	logger    *zap.Logger
}

func main() {
	if err := runCLI(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "compound",
		Short: "Build hosts from composable modules and drive them",
		Long: `compound loads a manifest of modules, attaches them to a host and
lets you call operations on it, inspect how names resolve, or experiment
interactively in a console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(opts.verbose, opts.logFormat)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log encoding: console or json")

	root.AddCommand(newRunCmd(opts), newInspectCmd(opts), newREPLCmd(opts))
	return root
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <manifest> <operation> [args...]",
		Short: "Call one operation on the manifest's host and print the result",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(args[0], opts.logger)
			if err != nil {
				return err
			}
			result, err := set.Host.Invoke(args[1], parseArgs(args[2:]), nil, nil)
			if err != nil {
				return fmt.Errorf("execution failed: %w", err)
			}
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), formatValue(result))
			}
			return nil
		},
	}
}

func buildLogger(verbose bool, format string) (*zap.Logger, error) {
	var config zap.Config
	switch format {
	case "console", "":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// loadSet builds the manifest at path and requires it to declare a host.
func loadSet(path string, logger *zap.Logger) (*manifest.Set, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	set, err := m.Build(logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if set.Host == nil {
		return nil, errors.New(path + ": manifest declares no host")
	}
	return set, nil
}

// parseArgs turns command-line words into operation arguments. Integers,
// floats, booleans and nil are recognised; everything else stays a string.
func parseArgs(raw []string) []any {
	out := make([]any, len(raw))
	for i, word := range raw {
		out[i] = parseArg(word)
	}
	return out
}

func parseArg(word string) any {
	if word == "nil" {
		return nil
	}
	if n, err := strconv.Atoi(word); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return f
	}
	switch word {
	case "true":
		return true
	case "false":
		return false
	}
	if unq, err := strconv.Unquote(word); err == nil {
		return unq
	}
	return word
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
