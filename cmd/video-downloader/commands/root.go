// Package commands holds the video-downloader command line
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set during build via -ldflags "-X github.com/MDigiTechnology/Video-Downloader/cmd/video-downloader/commands.Version=X.Y.Z"
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "video-downloader",
		Short:         "Download videos and audio from YouTube and Instagram over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(
		NewServeCommand(&configFile),
		NewProbeCommand(),
		NewVersionCommand(),
	)

	return rootCmd
}

// NewVersionCommand prints the build version
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "video-downloader %s\n", Version)
		},
	}
}
