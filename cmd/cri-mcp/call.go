package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var callCmd = &cobra.Command{
	Use:   "call TOOL",
	Short: "Run one tool call against the runtime",
	Long: `Run a single tool call through the same dispatcher the server uses and
print the result as JSON. Arguments are a JSON or YAML object.

The command exits non-zero when the call fails; the failure kind is
printed first, as an MCP client would see it.`,
	Example: `  cri-mcp call list_containers --args '{"state": "RUNNING"}'
  cri-mcp call container_logs --args '{container_id: 3f2a, tail: 20}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetString("args")
		arguments, err := parseArguments(raw)
		if err != nil {
			return err
		}

		ctx := context.Background()
		s, err := openStack(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer s.Close()

		result := s.dispatcher.Dispatch(ctx, types.ToolCall{Name: args[0], Arguments: arguments})
		if f := result.Failure(); f != nil {
			pterm.Error.Printfln("%s: %s", f.Kind, f.Message)
			return fmt.Errorf("%s failed with %s", args[0], f.Kind)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Payload())
	},
}

func init() {
	callCmd.Flags().String("args", "{}", "Tool arguments as a JSON or YAML object")
}

// parseArguments accepts JSON or YAML; JSON objects are valid YAML
func parseArguments(raw string) (map[string]any, error) {
	arguments := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, fmt.Errorf("failed to parse --args: %w", err)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	return arguments, nil
}
