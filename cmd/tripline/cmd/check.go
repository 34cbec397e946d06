package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/corvid-labs/tripline/internal/audit"
	"github.com/corvid-labs/tripline/internal/config"
	"github.com/corvid-labs/tripline/sdk/go/tripline"
)

var (
	checkFixturePath string
	checkFormat      string
	checkAuditLog    string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkFixturePath, "fixture", "", "path to a JSON conversation fixture")
	checkCmd.MarkFlagRequired("fixture")
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "output format: text|json")
	checkCmd.Flags().StringVar(&checkAuditLog, "audit-log", "", "optional path to append a hash-chained decision record")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one guard pass against a JSON conversation fixture",
	Long:  "Loads a conversation, a proposed action, and the set of untrusted tool names from a JSON fixture, runs a single Guard.Check pass, and prints the decision.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, f, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	data, err := os.ReadFile(checkFixturePath)
	if err != nil {
		return fmt.Errorf("check: read fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("check: parse fixture: %w", err)
	}

	proxy, action, sanitizer := buildAdapters(f)
	guard := tripline.New(proxy, action, sanitizer, optionsFromConfig(cfg)...)

	traceID := fx.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	result, err := guard.Check(cmd.Context(), fx.toMessages(), fx.toAction(), fx.UntrustedToolNames)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	if checkAuditLog != "" {
		log, err := audit.Open(checkAuditLog)
		if err != nil {
			return fmt.Errorf("check: open audit log: %w", err)
		}
		defer log.Close()
		if err := log.Record(audit.BuildEntry(traceID, result)); err != nil {
			return fmt.Errorf("check: record audit entry: %w", err)
		}
	}

	if checkFormat == "json" {
		out, err := json.MarshalIndent(struct {
			TraceID string `json:"trace_id"`
			Result  any    `json:"result"`
		}{traceID, result}, "", "  ")
		if err != nil {
			return fmt.Errorf("check: marshal result: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(formatDecisionText(traceID, result))
	}

	if result.WasDefended {
		os.Exit(1)
	}
	return nil
}
