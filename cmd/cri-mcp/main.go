package main

import (
	"fmt"
	"os"

	"github.com/cuemby/cri-mcp/pkg/config"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cri-mcp",
	Short: "cri-mcp - MCP server for the Container Runtime Interface",
	Long: `cri-mcp exposes a container runtime's CRI services as MCP tools.

Agents connect over stdio, streamable HTTP or SSE and manage pods,
containers and images on the node through containerd's CRI socket.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// v holds the merged configuration: flags, CRI_MCP_* environment, the
// config file and defaults, in that order of precedence
var v = viper.New()

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"cri-mcp version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./cri-mcp.yaml or /etc/cri-mcp/cri-mcp.yaml)")
	flags.String("endpoint", config.DefaultEndpoint, "CRI socket endpoint")
	flags.Bool("read-only", false, "Hide and refuse tools that change runtime state")
	flags.StringSlice("disable", nil, "Tool names to remove from the catalog")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log in JSON format")

	bind(flags.Lookup("endpoint"), "endpoint")
	bind(flags.Lookup("read-only"), "read_only")
	bind(flags.Lookup("disable"), "tools.disabled")
	bind(flags.Lookup("log-level"), "log.level")
	bind(flags.Lookup("log-json"), "log.json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration and initializes logging from it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, err
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	return cfg, nil
}
