package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the listing commands
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the server advertises",
	Long: `List the tools in catalog order, as a client would see them after
applying --read-only, --disable and the containerd settings. No runtime
connection is made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := newCatalog(cfg)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		return printTools(cat.List(), output)
	},
}

func init() {
	toolsCmd.Flags().StringP("output", "o", outputTable, "Output format: table, json or yaml")
}

func printTools(tools []types.ToolDescriptor, output string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tools)
	case outputYAML:
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(tools)
	case outputTable:
		data := pterm.TableData{{"NAME", "GROUP", "EFFECT", "DESCRIPTION"}}
		for _, t := range tools {
			data = append(data, []string{t.Name, t.Group, effect(t.Annotations), firstSentence(t.Description)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func effect(a types.ToolAnnotations) string {
	switch {
	case a.ReadOnly:
		return "read"
	case a.Destructive:
		return pterm.Red("destructive")
	default:
		return pterm.Yellow("write")
	}
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
