package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tubegrab/internal/download"
	"tubegrab/internal/tui"
)

var (
	getAudio       bool
	getAudioFormat string
	getFormatID    string
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Download a video or extract its audio",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}

	cmd.Flags().BoolVarP(&getAudio, "audio", "a", false, "Extract audio instead of downloading video")
	cmd.Flags().StringVar(&getAudioFormat, "audio-format", "", "Audio codec for --audio (default mp3)")
	cmd.Flags().StringVarP(&getFormatID, "format", "f", "", "Explicit format id from the info command")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	a, err := newApp("get")
	if err != nil {
		return err
	}
	defer a.close()

	mode := download.ModeVideo
	if getAudio || (!cmd.Flags().Changed("audio") && a.settings.Mode == "audio") {
		mode = download.ModeAudio
	}
	audioFormat := getAudioFormat
	if audioFormat == "" {
		audioFormat = a.settings.AudioFormat
	}

	req := download.Request{
		URL:         args[0],
		OutputDir:   a.outputDir(),
		Mode:        mode,
		FormatID:    getFormatID,
		AudioFormat: audioFormat,
	}

	if _, err := a.eng.Download(req); err != nil {
		return err
	}

	if outputJSON {
		return runGetJSON(cmd, a)
	}
	return tui.Run(cmd.OutOrStdout(), a.eng, fmt.Sprintf("tubegrab — %s", req.URL))
}

// runGetJSON waits without the interactive view and emits the terminal result
// as JSON. Interrupts cancel the download instead of killing the process
// outright so the engine can report the cancelled outcome.
func runGetJSON(cmd *cobra.Command, a *app) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		if _, ok := <-interrupts; ok {
			a.eng.Cancel()
		}
	}()

	state := waitCompleted(a.eng)

	out := struct {
		Outcome    string   `json:"outcome"`
		OutputPath string   `json:"output_path,omitempty"`
		Error      string   `json:"error,omitempty"`
		Notices    []string `json:"notices,omitempty"`
	}{Notices: state.Notices}

	if state.Result != nil {
		out.Outcome = string(state.Result.Outcome)
		out.OutputPath = state.Result.OutputPath
	}
	if state.Err != nil {
		if out.Outcome == "" {
			out.Outcome = string(download.OutcomeFailed)
		}
		out.Error = state.Err.Error()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	cmd.Println(string(data))

	if state.Err != nil {
		return state.Err
	}
	return nil
}
