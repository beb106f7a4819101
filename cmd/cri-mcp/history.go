package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/cri-mcp/pkg/storage"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded tool calls",
	Long: `Show tool calls recorded in the audit journal (audit.path), newest first.
Argument values are never recorded.

The journal file is locked while a server writes to it; stop the server
or copy the file to read it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("audit-path")
		if path == "" {
			path = cfg.Audit.Path
		}
		if path == "" {
			return fmt.Errorf("no audit journal configured: set audit.path or --audit-path")
		}

		journal, err := storage.OpenBoltJournalReadOnly(path)
		if errors.Is(err, storage.ErrLocked) {
			return fmt.Errorf("%s is in use by a running server", path)
		}
		if err != nil {
			return err
		}
		defer journal.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		tool, _ := cmd.Flags().GetString("tool")
		records, err := journal.List(limit, tool)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		return printRecords(records, output)
	},
}

func init() {
	flags := historyCmd.Flags()
	flags.String("audit-path", "", "Journal file (defaults to audit.path)")
	flags.Int("limit", 50, "Maximum number of records, 0 for all")
	flags.String("tool", "", "Only calls to this tool")
	flags.StringP("output", "o", outputTable, "Output format: table, json or yaml")
}

func printRecords(records []types.CallRecord, output string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case outputYAML:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(records)
	case outputTable:
		if len(records) == 0 {
			pterm.Info.Println("No calls recorded")
			return nil
		}
		data := pterm.TableData{{"STARTED", "TOOL", "RESULT", "DURATION", "MESSAGE"}}
		for _, r := range records {
			data = append(data, []string{
				r.StartedAt.Local().Format(time.DateTime),
				r.Tool,
				kindColor(r.Kind),
				r.Duration.Round(time.Millisecond).String(),
				r.Message,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func kindColor(k types.Kind) string {
	switch k {
	case types.KindOK:
		return pterm.Green(string(k))
	case types.KindInternal, types.KindUnavailable:
		return pterm.Red(string(k))
	default:
		return pterm.Yellow(string(k))
	}
}
