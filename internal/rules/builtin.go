// Package rules holds the builtin inspections.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"jinspect/internal/analysis"
)

// Config parameterises the builtin rules.
type Config struct {
	ImplicitNamespace string
}

// Builtin returns every builtin rule in registration order.
func Builtin(cfg Config) []*analysis.Rule {
	return []*analysis.Rule{
		AbstractOverride(),
		ImplicitImport(cfg.ImplicitNamespace),
	}
}

// Select keeps the rules named in ids, preserving registration order. An
// empty ids keeps everything.
func Select(all []*analysis.Rule, ids []string) ([]*analysis.Rule, error) {
	if len(ids) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []*analysis.Rule
	for _, r := range all {
		if want[r.ID] {
			out = append(out, r)
			delete(want, r.ID)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for id := range want {
			unknown = append(unknown, id)
		}
		slices.Sort(unknown)
		return nil, fmt.Errorf("unknown rules: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
