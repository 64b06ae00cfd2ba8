package main

import (
	"fmt"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=..." on release builds.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		goVersion := "unknown"
		if info, ok := rtdebug.ReadBuildInfo(); ok {
			goVersion = info.GoVersion
		}
		fmt.Printf("jobhunter %s (%s)\n", version, goVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
