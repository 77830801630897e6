package cli

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"tubegrab/internal/logx"
	"tubegrab/internal/paths"
	"tubegrab/internal/tool"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and update the managed extractor",
	}

	cmd.AddCommand(newToolsStatusCmd())
	cmd.AddCommand(newToolsUpdateCmd())

	return cmd
}

func newToolsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed extractor without touching the network",
		RunE:  runToolsStatus,
	}
}

type toolStatus struct {
	Tool        string `json:"tool"`
	Installed   bool   `json:"installed"`
	Version     string `json:"version,omitempty"`
	Path        string `json:"path,omitempty"`
	InstalledAt string `json:"installed_at,omitempty"`
	CheckedAt   string `json:"checked_at,omitempty"`
	FFmpeg      bool   `json:"ffmpeg_in_path"`
}

func runToolsStatus(cmd *cobra.Command, _ []string) error {
	p, err := paths.Resolve()
	if err != nil {
		return err
	}

	status := toolStatus{Tool: tool.Extractor().Name}
	if inst, ok := tool.Status(p.BinDir); ok {
		status.Installed = true
		status.Version = inst.Version
		status.Path = inst.BinPath
		status.InstalledAt = inst.InstalledAt.Format(time.RFC3339)
		status.CheckedAt = inst.CheckedAt.Format(time.RFC3339)
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		status.FFmpeg = true
	}

	if outputJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if !status.Installed {
		cmd.Printf("%s: not installed (run `tubegrab tools update`)\n", status.Tool)
	} else {
		cmd.Printf("%s %s\n", status.Tool, status.Version)
		cmd.Printf("  path:         %s\n", status.Path)
		cmd.Printf("  installed at: %s\n", status.InstalledAt)
		cmd.Printf("  last check:   %s\n", status.CheckedAt)
	}
	if !status.FFmpeg {
		cmd.Println("warning: ffmpeg not found in PATH; audio extraction may fail")
	}
	return nil
}

func newToolsUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Install the extractor or upgrade it to the latest release",
		RunE:  runToolsUpdate,
	}
}

func runToolsUpdate(cmd *cobra.Command, _ []string) error {
	p, err := paths.Resolve()
	if err != nil {
		return err
	}
	if err := p.EnsureDirs(); err != nil {
		return err
	}

	logger, closer, err := logx.New(p, "tools-update")
	if err != nil {
		return err
	}
	defer closer.Close()

	// Interval zero forces a release lookup regardless of the configured
	// update_check window.
	prov := tool.New(p.BinDir, 0)
	prov.Logf = func(format string, v ...any) {
		logger.Printf(format, v...)
		cmd.Printf(format+"\n", v...)
	}

	inst, err := prov.EnsureReady(cmd.Context())
	if err != nil {
		return err
	}

	printNotices(cmd.Printf, inst.Notices)
	cmd.Printf("%s %s ready at %s\n", tool.Extractor().Name, inst.Version, inst.BinPath)
	return nil
}
