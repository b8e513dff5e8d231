package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/storage"
	"github.com/diogo/agi/internal/tui"
)

func newSettingsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved settings",
		Long: `Show or change the settings record used for every request.

Fields: ` + strings.Join(config.SettingFields(), ", "),
	}

	cmd.AddCommand(newSettingsShowCmd(deps))
	cmd.AddCommand(newSettingsSetCmd(deps))
	cmd.AddCommand(newSettingsResetCmd(deps))
	cmd.AddCommand(newSettingsPathCmd(deps))
	return cmd
}

func newSettingsShowCmd(deps *Dependencies) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.openSettings()
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := formatSettings(a.settings.Current(), format)
			if err != nil {
				return err
			}
			fmt.Fprint(deps.Stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func formatSettings(s config.AppSettings, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json", "":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal settings: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml", "yml":
		data, err := yaml.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("failed to marshal settings: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func newSettingsSetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "set field=value [field=value...]",
		Short: "Change one or more settings",
		Example: `  agi settings set persona=teacher
  agi settings set provider=ollama model=llama3.2 temperature=0.2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.openSettings()
			if err != nil {
				return err
			}
			defer a.Close()

			next, err := config.Apply(a.settings.Current(), args)
			if err != nil {
				return err
			}
			if err := a.settings.Save(next); err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, tui.SuccessText("✓ Settings saved"))
			return nil
		},
	}
}

func newSettingsResetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.openSettings()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.settings.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, tui.SuccessText("✓ Settings restored to defaults"))
			return nil
		},
	}
}

func newSettingsPathCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the settings are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := config.LoadRuntime(deps.Viper)
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, settingsLocation(rt))
			return nil
		},
	}
}

// settingsLocation describes where the settings record lives for a runtime
func settingsLocation(rt config.Runtime) string {
	switch rt.Storage {
	case storage.BackendFile:
		return filepath.Join(rt.DataDir, config.SettingsKey+".json")
	case storage.BackendMemory:
		return "(memory, not persisted)"
	default:
		return fmt.Sprintf("%s (bucket %q, key %q)", filepath.Join(rt.DataDir, storage.BoltFileName), "settings", config.SettingsKey)
	}
}
