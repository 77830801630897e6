package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppPaths captures canonical locations for tubegrab's persisted state.
type AppPaths struct {
	Root         string
	BinDir       string
	LogsDir      string
	SettingsFile string
}

// Resolve determines the application state directory, honouring the
// TUBEGRAB_DIR override used by tests and portable installs.
func Resolve() (AppPaths, error) {
	if override, ok := os.LookupEnv("TUBEGRAB_DIR"); ok && override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return AppPaths{}, fmt.Errorf("resolve TUBEGRAB_DIR: %w", err)
		}
		return newAppPaths(abs), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("detect user home: %w", err)
	}

	var root string
	switch runtime.GOOS {
	case "darwin":
		root = filepath.Join(home, "Library", "Application Support", "tubegrab")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			root = filepath.Join(localAppData, "tubegrab")
		} else {
			root = filepath.Join(home, "AppData", "Local", "tubegrab")
		}
	default:
		root = filepath.Join(home, ".tubegrab")
	}
	return newAppPaths(root), nil
}

func newAppPaths(root string) AppPaths {
	return AppPaths{
		Root:         root,
		BinDir:       filepath.Join(root, "bin"),
		LogsDir:      filepath.Join(root, "logs"),
		SettingsFile: filepath.Join(root, "settings.yaml"),
	}
}

// EnsureDirs creates the state directory hierarchy.
func (p AppPaths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.BinDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultDownloadDir returns the user's download directory, falling back to
// the working directory when it cannot be determined.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err == nil {
		candidate := filepath.Join(home, "Downloads")
		if ok, _ := DirExists(candidate); ok {
			return candidate
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
