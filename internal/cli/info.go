package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tubegrab/internal/info"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Fetch title, duration and the format table for a video URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp("info")
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.eng.FetchInfo(args[0]); err != nil {
		return err
	}
	state := waitCompleted(a.eng)

	printNotices(cmd.Printf, state.Notices)
	if state.Err != nil {
		return state.Err
	}

	meta := state.Metadata
	if outputJSON {
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printMetadata(cmd, *meta)
	return nil
}

func printMetadata(cmd *cobra.Command, meta info.VideoMetadata) {
	cmd.Printf("Title:    %s\n", meta.Title)
	cmd.Printf("Duration: %s\n", meta.DurationDisplay())
	if meta.Uploader != "" {
		cmd.Printf("Uploader: %s\n", meta.Uploader)
	}
	if meta.ViewCount > 0 {
		cmd.Printf("Views:    %d\n", meta.ViewCount)
	}
	if len(meta.Formats) == 0 {
		return
	}

	cmd.Println()
	cmd.Printf("%-8s %-12s %-6s %-10s %-20s %-10s %s\n",
		"ID", "Resolution", "FPS", "Bitrate", "Codec", "Size", "Kind")
	for _, f := range meta.Formats {
		cmd.Printf("%-8s %-12s %-6s %-10s %-20s %-10s %s\n",
			f.ID,
			f.Resolution,
			formatFPS(f.FPS),
			formatBitrate(f),
			f.Codec,
			formatBytes(f.SizeBytes),
			f.Kind)
	}
}

func formatFPS(fps float64) string {
	if fps <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", fps)
}

func formatBitrate(f info.Format) string {
	switch f.Kind {
	case info.KindAudioOnly:
		if f.AudioKbps > 0 {
			return fmt.Sprintf("%.0fk", f.AudioKbps)
		}
	default:
		if f.VideoKbps > 0 {
			return fmt.Sprintf("%.0fk", f.VideoKbps)
		}
	}
	return "-"
}

// formatBytes renders a size in the binary units the extractor uses.
func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1<<30:
		return fmt.Sprintf("%.2fGiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
