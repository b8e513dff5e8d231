// Package commands provides CLI commands for agi.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/diogo/agi/internal/config"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// exitError carries a process exit code for failures that were already
// reported to the user
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// askFlags are the one-shot flags of the root command
type askFlags struct {
	output  string
	file    string
	copy    bool
	raw     bool
	version bool
}

// NewRootCmd creates the agi command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	flags := &askFlags{}

	cmd := &cobra.Command{
		Use:   "agi [prompt]",
		Short: "Terminal client for a generative intelligence service",
		Long: `agi is a terminal client for conversing with a generative model.
Run it without input for the interactive interface, or pass a prompt for a
single answer.

Examples:
  agi                                  Start the interactive interface
  agi "What is Go?"                    Ask a single question
  agi -f prompt.md                     Read the prompt from a file
  cat prompt.md | agi                  Read the prompt from stdin
  agi "Hello" -o reply.md              Save the reply to a file
  agi settings set persona=teacher     Change a setting`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ephemeral, err := cmd.Flags().GetBool("ephemeral")
			if err != nil {
				return err
			}
			if ephemeral {
				deps.Viper.Set(config.KeyStorage, "memory")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.version {
				fmt.Fprintf(deps.Stdout, "agi %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if flags.file != "" {
				data, err := os.ReadFile(flags.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runAsk(cmd, deps, flags, string(data))
			}

			if len(args) > 0 {
				return runAsk(cmd, deps, flags, args[0])
			}

			if deps.StdinIsPipe != nil && deps.StdinIsPipe() {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runAsk(cmd, deps, flags, string(data))
			}

			return runChat(cmd, deps)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("data-dir", "", "Directory for settings, logs and exports (default ~/.agi)")
	pf.String("storage", "", "Settings backend: bolt, file or memory")
	pf.Bool("ephemeral", false, "Keep settings in memory only (same as --storage memory)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("provider", "", "Provider for this session: gemini, gemini-rest, openai, ollama")
	pf.StringP("model", "m", "", "Model for this session (e.g., gemini-2.5-flash)")

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save the reply to a file")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the prompt from a file")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the reply to the clipboard")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "Print the reply without decoration")
	cmd.Flags().BoolVarP(&flags.version, "version", "v", false, "Show version and exit")

	bindFlags(deps.Viper, cmd)

	cmd.AddCommand(newChatCmd(deps))
	cmd.AddCommand(newSettingsCmd(deps))
	cmd.AddCommand(newViewsCmd(deps))

	return cmd
}

// bindFlags connects the persistent flags to their viper keys so a flag wins
// over the environment, which wins over the default
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	bindings := map[string]string{
		"data-dir":  config.KeyDataDir,
		"storage":   config.KeyStorage,
		"log-level": config.KeyLogLevel,
		"provider":  config.KeyProvider,
		"model":     config.KeyModel,
	}
	for flag, key := range bindings {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

// Execute runs the root command and exits with a non-zero status on failure
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).Execute(); err != nil {
		os.Exit(reportError(deps.Stderr, err))
	}
}

// reportError prints err unless it was already reported, and returns the exit code
func reportError(w io.Writer, err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(w, "Error: %s\n", strings.TrimSpace(err.Error()))
	return 1
}
