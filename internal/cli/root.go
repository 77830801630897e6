package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputDir  string
	outputJSON bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tubegrab",
		Short: "Download videos and audio through a managed yt-dlp",
	}

	cmd.PersistentFlags().StringVar(&outputDir, "dir", "", "Directory to write downloads into")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
