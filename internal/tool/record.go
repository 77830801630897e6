package tool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const recordFileName = "install.json"

// Installation records the provisioned binary. It is only ever written after
// the binary at BinPath has been verified executable.
type Installation struct {
	BinPath     string    `json:"bin_path"`
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installed_at"`
	CheckedAt   time.Time `json:"checked_at"`

	// Notices carries non-fatal provisioning observations (update check
	// failures, missing ffmpeg). Not persisted.
	Notices []string `json:"-"`
}

func recordPath(binDir string) string {
	return filepath.Join(binDir, recordFileName)
}

// loadRecord reads the install record. A missing or unreadable record means
// no installation; corruption triggers re-provisioning, never a crash.
func loadRecord(binDir string) (Installation, bool) {
	contents, err := os.ReadFile(recordPath(binDir))
	if err != nil {
		return Installation{}, false
	}
	var inst Installation
	if err := json.Unmarshal(contents, &inst); err != nil {
		return Installation{}, false
	}
	if inst.BinPath == "" || inst.Version == "" {
		return Installation{}, false
	}
	if _, err := os.Stat(inst.BinPath); err != nil {
		return Installation{}, false
	}
	return inst, true
}

// Status reports the locally installed extractor, if any, without touching
// the network.
func Status(binDir string) (Installation, bool) {
	return loadRecord(binDir)
}

// saveRecord persists the install record with an atomic replace.
func saveRecord(binDir string, inst Installation) error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("prepare bin directory: %w", err)
	}

	buf, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal install record: %w", err)
	}

	tmp, err := os.CreateTemp(binDir, "install-*.json")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Rename(tmp.Name(), recordPath(binDir)); err != nil {
		return fmt.Errorf("replace install record: %w", err)
	}
	return nil
}
