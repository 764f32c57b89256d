package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MDigiTechnology/Video-Downloader/internal/media"
)

// NewProbeCommand reports the external tools found on this host
func NewProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check ffmpeg, ffprobe and yt-dlp availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := media.Probe(cmd.Context())

			out, err := json.MarshalIndent(tools, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode probe result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !tools.FFmpeg {
				for _, line := range media.InstallHint {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
			}
			return nil
		},
	}
}
