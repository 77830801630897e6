package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tubegrab/internal/config"
	"tubegrab/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one settings key and persist it",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	p, err := paths.Resolve()
	if err != nil {
		return err
	}
	settings, err := config.Load(p.SettingsFile)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	cmd.Printf("# %s\n%s", p.SettingsFile, string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	p, err := paths.Resolve()
	if err != nil {
		return err
	}
	if err := p.EnsureDirs(); err != nil {
		return err
	}
	settings, err := config.Load(p.SettingsFile)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := applySetting(&settings, key, value); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := config.Save(p.SettingsFile, settings); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func applySetting(s *config.Settings, key, value string) error {
	switch key {
	case "output_dir":
		s.OutputDir = value
	case "mode":
		s.Mode = value
	case "audio_format":
		s.AudioFormat = value
	case "update_check":
		s.UpdateCheck = config.UpdateCheck(value)
	case "console_lines":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("console_lines wants a positive integer, got %q", value)
		}
		s.ConsoleLines = n
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}
	return nil
}
