package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jinspect/internal/analysis"
	"jinspect/internal/rules"
)

type ruleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Group    string `json:"group"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Fix      string `json:"fix,omitempty"`
}

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available inspections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			infos := collectRuleInfo(rules.Builtin(rules.Config{}))
			switch strings.ToLower(format) {
			case "pretty":
				renderRulesPretty(cmd.OutOrStdout(), infos)
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func collectRuleInfo(all []*analysis.Rule) []ruleInfo {
	out := make([]ruleInfo, 0, len(all))
	for _, r := range all {
		info := ruleInfo{
			ID:       r.ID,
			Name:     r.Name,
			Group:    r.Group,
			Code:     r.Code.ID(),
			Severity: strings.ToLower(r.Severity.String()),
		}
		if r.Fix != nil {
			info.Fix = r.Fix.Title
		}
		out = append(out, info)
	}
	return out
}

func renderRulesPretty(out io.Writer, infos []ruleInfo) {
	for _, r := range infos {
		fmt.Fprintf(out, "%-18s %-8s %-8s %-14s %s\n", r.ID, r.Code, r.Severity, r.Group, r.Name)
		if r.Fix != "" {
			fmt.Fprintf(out, "%-18s fix: %s\n", "", r.Fix)
		}
	}
}
