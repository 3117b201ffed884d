package diagfmt

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/source"
)

// Sarif форматирует диагностики в SARIF формат (v2.1.0). rules describe the
// reporting descriptors; diagnostics of unknown rules get a bare descriptor.
func Sarif(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, rules []*analysis.Rule, meta SarifRunMeta) error {
	report, err := BuildSarif(diags, fs, rules, meta)
	if err != nil {
		return err
	}
	return report.PrettyWrite(w)
}

// BuildSarif builds the report without serialising it.
func BuildSarif(diags []diag.Diagnostic, fs *source.FileSet, rules []*analysis.Rule, meta SarifRunMeta) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}
	name := meta.ToolName
	if name == "" {
		name = "jinspect"
	}
	run := sarif.NewRunWithInformationURI(name, meta.InformationURI)
	if meta.ToolVersion != "" {
		v := meta.ToolVersion
		run.Tool.Driver.Version = &v
	}

	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		run.AddRule(r.ID).
			WithDescription(r.Name).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: sarifLevel(r.Severity)}).
			WithProperties(sarif.Properties{"group": r.Group, "code": r.Code.ID()})
		known[r.ID] = true
	}

	for i := range diags {
		d := &diags[i]
		ruleID := d.Rule
		if ruleID == "" {
			ruleID = d.Code.ID()
		}
		if !known[ruleID] {
			run.AddRule(ruleID).WithDescription(d.Code.Title())
			known[ruleID] = true
		}

		start, end := fs.Resolve(d.Primary)
		region := sarif.NewRegion().
			WithStartLine(int(start.Line)).
			WithStartColumn(int(start.Col)).
			WithEndLine(int(end.Line)).
			WithEndColumn(int(end.Col))
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(formatPath(fs, d.Primary.File, meta.PathMode))).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(d.Message)).
			WithLevel(sarifLevel(d.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	report.AddRun(run)
	return report, nil
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
