package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jinspect/internal/baseline"
	"jinspect/internal/diag"
	"jinspect/internal/diagfmt"
	"jinspect/internal/driver"
	"jinspect/internal/version"
)

const informationURI = "https://github.com/jinspect/jinspect"

func newDiagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [flags] <file.java|directory>",
		Short: "Run inspections on a Java source file or directory",
		Long:  `Run inspections on a Java source file or on all *.java files within a directory and report the findings`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiagnose(cmd, args[0])
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	cmd.Flags().StringSlice("rules", nil, "comma-separated rule ids to run (default: all enabled)")
	cmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	cmd.Flags().String("baseline", "", "suppress findings recorded in this baseline file")
	cmd.Flags().String("write-baseline", "", "record the current findings into this baseline file and exit")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	cmd.Flags().Bool("suggest", true, "include fix suggestions in output")
	return cmd
}

// runDiagnose executes the "diag" command. It returns an *exitError with
// code 1 when findings remain after baseline filtering.
func (a *app) runDiagnose(cmd *cobra.Command, target string) error {
	ruleIDs, err := cmd.Flags().GetStringSlice("rules")
	if err != nil {
		return fmt.Errorf("failed to get rules flag: %w", err)
	}
	baselinePath, err := cmd.Flags().GetString("baseline")
	if err != nil {
		return fmt.Errorf("failed to get baseline flag: %w", err)
	}
	writeBaseline, err := cmd.Flags().GetString("write-baseline")
	if err != nil {
		return fmt.Errorf("failed to get write-baseline flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}

	format := strings.ToLower(a.settings.Format)
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return fmt.Errorf("unknown format %q (must be pretty, short, json or sarif)", format)
	}

	p, err := a.newPipeline(cmd, target, ruleIDs)
	if err != nil {
		return fmt.Errorf("diag: %w", err)
	}
	res, err := driver.Diagnose(cmd.Context(), target, p.rules, p.opts)
	if err != nil {
		return fmt.Errorf("diag: %w", err)
	}
	diags := res.Diagnostics()

	if writeBaseline != "" {
		b := baseline.New(diags, res.FileSet, p.baseDir)
		if err := b.Save(a.fs, writeBaseline); err != nil {
			return fmt.Errorf("diag: write baseline: %w", err)
		}
		if !a.settings.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "baseline %s: %d finding(s) recorded\n", writeBaseline, b.Len())
		}
		return nil
	}

	suppressed := 0
	if baselinePath != "" {
		b, err := baseline.Load(a.fs, baselinePath)
		if err != nil {
			return fmt.Errorf("diag: %w", err)
		}
		diags, suppressed = b.Filter(diags, res.FileSet, p.baseDir)
		a.logger.Debug("baseline applied", "path", baselinePath, "suppressed", suppressed)
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		diagfmt.Pretty(out, diags, res.FileSet, diagfmt.PrettyOpts{
			Color:     a.color,
			Context:   1,
			PathMode:  pathMode,
			ShowNotes: withNotes,
			ShowFixes: suggest,
		})
	case "short":
		diagfmt.Short(out, diags, res.FileSet, pathMode)
	case "json":
		err = diagfmt.JSON(out, diags, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeFixes:     suggest,
		})
	case "sarif":
		err = diagfmt.Sarif(out, diags, res.FileSet, p.rules, diagfmt.SarifRunMeta{
			ToolName:       "jinspect",
			ToolVersion:    version.Version,
			InformationURI: informationURI,
			PathMode:       pathMode,
		})
	}
	if err != nil {
		return fmt.Errorf("diag: %w", err)
	}

	if format == "pretty" && !a.settings.Quiet {
		printSummary(cmd, diags, suppressed, res.Registry.Len() >= res.Registry.Cap() && res.Registry.Cap() > 0)
	}
	a.printTimings(cmd, p)

	if len(diags) > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func printSummary(cmd *cobra.Command, diags []diag.Diagnostic, suppressed int, truncated bool) {
	var errs, warns int
	for i := range diags {
		switch diags[i].Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	w := cmd.ErrOrStderr()
	if len(diags) == 0 {
		fmt.Fprint(w, "no problems found")
	} else {
		fmt.Fprintf(w, "%d error(s), %d warning(s), %d total", errs, warns, len(diags))
	}
	if suppressed > 0 {
		fmt.Fprintf(w, ", %d suppressed by baseline", suppressed)
	}
	if truncated {
		fmt.Fprint(w, " (limit reached, raise --max-diagnostics)")
	}
	fmt.Fprintln(w)
}
