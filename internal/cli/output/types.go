package output

import (
	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/internal/state"
	"github.com/leapstack-labs/relalg/pkg/validate"
)

// TranslateOutput is the JSON output of a translation.
type TranslateOutput struct {
	OK bool `json:"ok"`
	*engine.Result
	Tree          string `json:"tree"`
	OptimizedTree string `json:"optimized_tree"`
	Plan          string `json:"plan"`
	OptimizedPlan string `json:"optimized_plan"`
}

// ErrorOutput is the JSON output of a rejected query.
type ErrorOutput struct {
	OK      bool   `json:"ok"`
	Query   string `json:"query,omitempty"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// BatchEntry is one query of a batch run.
type BatchEntry struct {
	Index               int    `json:"index"`
	Query               string `json:"query"`
	OK                  bool   `json:"ok"`
	Expression          string `json:"expression,omitempty"`
	OptimizedExpression string `json:"optimized_expression,omitempty"`
	Kind                string `json:"kind,omitempty"`
	Message             string `json:"message,omitempty"`
}

// BatchOutput is the JSON output of a batch run.
type BatchOutput struct {
	Results []BatchEntry `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// RuleInfo describes a validation rule.
type RuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
	BadExample  string `json:"bad_example,omitempty"`
	Disabled    bool   `json:"disabled"`
}

// RuleInfoFrom converts a rule definition.
func RuleInfoFrom(r validate.RuleDef, disabled bool) RuleInfo {
	return RuleInfo{
		ID:          r.ID,
		Name:        r.Name,
		Group:       r.Group,
		Description: r.Description,
		BadExample:  r.BadExample,
		Disabled:    disabled,
	}
}

// CatalogOutput is the JSON output of catalog show.
type CatalogOutput struct {
	Source string         `json:"source"`
	Tables []CatalogTable `json:"tables"`
}

// CatalogTable is one table of a catalog listing.
type CatalogTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// HistoryOutput is the JSON output of history.
type HistoryOutput struct {
	Runs []*state.Run `json:"runs"`
}
