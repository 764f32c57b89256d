package main

import (
	"fmt"
	"os"

	"github.com/MDigiTechnology/Video-Downloader/cmd/video-downloader/commands"
)

func main() {
	rootCmd := commands.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
