package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinspect/internal/diagfmt"
	"jinspect/internal/driver"
	"jinspect/internal/fix"
)

func newFixCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <file.java|directory>",
		Short: "Apply available fixes to a Java source file or directory",
		Long:  "Run inspections, surface available fixes, and apply them according to the chosen strategy.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFix(cmd, args[0])
		},
	}
	cmd.Flags().Bool("all", false, "apply all safe fixes")
	cmd.Flags().Bool("once", false, "apply the first available fix (default)")
	cmd.Flags().String("id", "", "apply every fix with a specific identifier")
	cmd.Flags().Bool("preview", false, "print a unified diff instead of modifying files")
	cmd.Flags().StringSlice("rules", nil, "comma-separated rule ids to run (default: all enabled)")
	cmd.Flags().Int("jobs", 0, "max parallel workers for parsing (0=auto)")
	return cmd
}

func (a *app) runFix(cmd *cobra.Command, target string) error {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnce, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return err
	}
	ruleIDs, err := cmd.Flags().GetStringSlice("rules")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnce) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnce {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
	}

	p, err := a.newPipeline(cmd, target, ruleIDs)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	res, err := driver.Load(cmd.Context(), target, p.opts)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	engine := &fix.Engine{
		Registry: res.Registry,
		BaseDir:  p.baseDir,
		Logger:   a.logger.Named("fix"),
		Timer:    p.timer,
	}
	if !preview {
		engine.Fs = a.fs
	}
	stop := p.timer.Track("fix")
	result, applyErr := engine.ApplyAll(cmd.Context(), fix.Batch{
		Trees:    res.Trees,
		Rules:    p.rules,
		Analysis: res.Analysis,
		Writable: fix.FSWritable{Fs: a.fs},
	}, opts)
	if result != nil {
		stop(fmt.Sprintf("%d applied", len(result.Applied)))
	}

	err = a.handleApplyResult(cmd.OutOrStdout(), result, applyErr, preview)
	a.printTimings(cmd, p)
	return err
}

func (a *app) handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, preview bool) error {
	if res == nil {
		return applyErr
	}

	verb := "Applied"
	if preview {
		verb = "Would apply"
	}
	if len(res.Applied) > 0 && !a.settings.Quiet {
		fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] - %s (%s)\n", item.Title, item.ID, location, item.Applicability)
		}
	}

	if len(res.FileChanges) > 0 {
		if preview {
			for _, change := range res.FileChanges {
				fmt.Fprint(out, diagfmt.UnifiedDiff(change.Path, change.Before, change.After))
			}
		} else if !a.settings.Quiet {
			fmt.Fprintln(out, "Updated files:")
			for _, change := range res.FileChanges {
				fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
			}
		}
	}

	if len(res.Skipped) > 0 && !a.settings.Quiet {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			where := ""
			if skip.Path != "" {
				where = " " + skip.Path
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]%s: %s\n", skip.Title, id, where, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]%s: %s\n", id, where, skip.Reason)
			}
		}
	}

	if errors.Is(applyErr, fix.ErrNoFixes) {
		if !a.settings.Quiet {
			fmt.Fprintln(out, "No fixes applied.")
		}
		return nil
	}
	return applyErr
}
