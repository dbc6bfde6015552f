// Package validate checks parsed queries against a catalog.
//
// Validation runs an ordered battery of rules. The first rule that fails
// stops the run and its error is returned; there is no partial success.
// Syntax rules look only at the query tokens; schema rules also need the
// resolved query and a catalog.
//
// # Usage
//
//	v := validate.New(catalog, validate.NewConfig().Disable("SY06"))
//	if err := v.Validate(query); err != nil {
//	    // *core.SyntaxError, *core.SchemaError or *core.AmbiguityError
//	}
package validate

import (
	"strings"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/token"
)

// Rule groups.
const (
	GroupSyntax = "syntax"
	GroupSchema = "schema"
)

// Input is what a rule inspects.
type Input struct {
	Raw     string
	Tokens  []token.Token // tokens of Raw, without the trailing EOF
	Query   *core.Query   // nil when only the text is available
	Catalog core.Catalog  // nil when no catalog is configured
}

// CheckFunc returns nil when the input satisfies the rule.
type CheckFunc func(in *Input) error

// RuleDef describes a validation rule.
type RuleDef struct {
	ID          string // Unique identifier, e.g., "SY01"
	Name        string // Human-readable name, e.g., "syntax.duplicate-keyword"
	Group       string // GroupSyntax or GroupSchema
	Description string
	BadExample  string
	Check       CheckFunc
}

// Config controls which rules run.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool
}

// NewConfig creates a configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{DisabledRules: make(map[string]bool)}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[strings.ToUpper(ruleID)]
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[strings.ToUpper(ruleID)] = true
	return c
}

// Validator runs the rule battery.
type Validator struct {
	catalog core.Catalog
	config  *Config
}

// New creates a validator. A nil catalog disables schema rules; a nil
// config enables every rule.
func New(catalog core.Catalog, config *Config) *Validator {
	if config == nil {
		config = NewConfig()
	}
	return &Validator{catalog: catalog, config: config}
}

// Validate runs every enabled rule against q in order.
func (v *Validator) Validate(q *core.Query) error {
	raw := q.Raw
	if raw == "" {
		raw = queryText(q)
	}
	return v.run(newInput(raw, q, v.catalog), "")
}

// Diagnose runs the syntax rules over raw text. It is used to explain
// why a query could not be parsed.
func (v *Validator) Diagnose(raw string) error {
	return v.run(newInput(raw, nil, nil), GroupSyntax)
}

func (v *Validator) run(in *Input, group string) error {
	for _, rule := range rules {
		if group != "" && rule.Group != group {
			continue
		}
		if v.config.IsDisabled(rule.ID) {
			continue
		}
		if rule.Group == GroupSchema && (in.Query == nil || in.Catalog == nil) {
			continue
		}
		if err := rule.Check(in); err != nil {
			return err
		}
	}
	return nil
}

func newInput(raw string, q *core.Query, cat core.Catalog) *Input {
	toks := token.Tokenize(raw)
	return &Input{
		Raw:     raw,
		Tokens:  toks[:len(toks)-1],
		Query:   q,
		Catalog: cat,
	}
}

// queryText rebuilds query text for queries assembled without raw input.
func queryText(q *core.Query) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(q.Clauses.Columns)
	sb.WriteString(" FROM ")
	sb.WriteString(q.Clauses.From)
	if q.Clauses.HasWhere() {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Clauses.Where)
	}
	return sb.String()
}

// Rules returns the rule battery in evaluation order.
func Rules() []RuleDef {
	out := make([]RuleDef, len(rules))
	copy(out, rules)
	return out
}

// GetByID returns a rule by its ID.
func GetByID(id string) (RuleDef, bool) {
	for _, r := range rules {
		if strings.EqualFold(r.ID, id) {
			return r, true
		}
	}
	return RuleDef{}, false
}
