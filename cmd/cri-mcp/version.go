package main

import (
	"fmt"
	"runtime/debug"

	"github.com/cuemby/cri-mcp/pkg/bridge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s\n", bridge.Name, Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("Go: %s\n", info.GoVersion)
		}
	},
}
