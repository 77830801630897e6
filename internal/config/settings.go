package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UpdateCheck controls how often the provisioner asks the release source for
// a newer extractor build. "always" queries on every operation, "never"
// trusts whatever is installed, and any Go duration string ("1h", "30m")
// reuses the last answer inside that window.
type UpdateCheck string

const (
	UpdateAlways UpdateCheck = "always"
	UpdateNever  UpdateCheck = "never"
)

// Settings captures the user-tunable behaviour persisted in settings.yaml.
type Settings struct {
	Version      int         `yaml:"version"`
	OutputDir    string      `yaml:"output_dir"`
	Mode         string      `yaml:"mode"`
	AudioFormat  string      `yaml:"audio_format"`
	UpdateCheck  UpdateCheck `yaml:"update_check"`
	ConsoleLines int         `yaml:"console_lines"`
}

// Default returns the baseline settings.
func Default() Settings {
	return Settings{
		Version:      1,
		OutputDir:    "",
		Mode:         "video",
		AudioFormat:  "mp3",
		UpdateCheck:  UpdateCheck("1h"),
		ConsoleLines: 50,
	}
}

// Load reads the YAML settings from disk if present, otherwise returns the
// defaults. A corrupt file is an error; a missing one is not.
func Load(path string) (Settings, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(contents, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes the settings to disk.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero values with the baseline configuration.
func (s *Settings) ApplyDefaults() {
	def := Default()
	if s.Version == 0 {
		s.Version = def.Version
	}
	if strings.TrimSpace(s.Mode) == "" {
		s.Mode = def.Mode
	}
	if strings.TrimSpace(s.AudioFormat) == "" {
		s.AudioFormat = def.AudioFormat
	}
	if strings.TrimSpace(string(s.UpdateCheck)) == "" {
		s.UpdateCheck = def.UpdateCheck
	}
	if s.ConsoleLines <= 0 {
		s.ConsoleLines = def.ConsoleLines
	}
}

// Validate rejects values the engine cannot honour.
func (s Settings) Validate() error {
	switch s.Mode {
	case "video", "audio":
	default:
		return fmt.Errorf("invalid mode %q (want video or audio)", s.Mode)
	}
	if _, err := s.UpdateInterval(); err != nil {
		return err
	}
	return nil
}

// UpdateInterval translates the update_check policy into a cache window.
// "always" maps to zero, "never" to a negative sentinel.
func (s Settings) UpdateInterval() (time.Duration, error) {
	switch s.UpdateCheck {
	case UpdateAlways:
		return 0, nil
	case UpdateNever:
		return -1, nil
	}
	d, err := time.ParseDuration(string(s.UpdateCheck))
	if err != nil {
		return 0, fmt.Errorf("invalid update_check %q: %w", s.UpdateCheck, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid update_check %q: negative duration", s.UpdateCheck)
	}
	return d, nil
}
