package validate

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
)

func checkTablesExist(in *Input) error {
	for _, t := range in.Query.Tables() {
		if _, ok := in.Catalog.Lookup(t.Name); !ok {
			return &core.SchemaError{
				Rule:    RuleUnknownTable,
				Message: fmt.Sprintf("table %q does not exist", t.Name),
				Table:   t.Name,
				Pos:     t.Pos,
			}
		}
	}
	return nil
}

func checkDistinctNames(in *Input) error {
	seen := make(map[string]bool)
	for _, t := range in.Query.Tables() {
		key := core.FoldIdent(t.Ref())
		if seen[key] {
			return &core.SchemaError{
				Rule:    RuleDuplicateName,
				Message: fmt.Sprintf("table name or alias %q is used more than once", t.Ref()),
				Table:   t.Name,
				Pos:     t.Pos,
			}
		}
		seen[key] = true
	}
	return nil
}

// columnRefs returns the column references of the select list, the ON
// conditions and the WHERE clause, with positions in the raw query.
func columnRefs(in *Input) []algebra.ColumnRef {
	var out []algebra.ColumnRef
	for _, seg := range segments(in.Tokens) {
		switch seg.kind {
		case segColumns, segOn, segWhere:
			out = append(out, algebra.ScanColumnRefs(seg.toks)...)
		}
	}
	return out
}

// owners returns the tables in scope that have column.
func owners(in *Input, column string) []core.TableRef {
	var out []core.TableRef
	for _, t := range in.Query.Tables() {
		if core.HasColumn(in.Catalog, t.Name, column) {
			out = append(out, t)
		}
	}
	return out
}

func scopeNames(q *core.Query) string {
	var names []string
	for _, t := range q.Tables() {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func checkBareColumnsExist(in *Input) error {
	for _, ref := range columnRefs(in) {
		if ref.Qualified() {
			continue
		}
		if len(owners(in, ref.Column)) == 0 {
			return &core.SchemaError{
				Rule:    RuleUnknownColumn,
				Message: fmt.Sprintf("column %q does not exist in any table in scope (%s)", ref.Column, scopeNames(in.Query)),
				Column:  ref.Column,
				Pos:     ref.Pos,
			}
		}
	}
	return nil
}

func checkBareColumnsUnique(in *Input) error {
	for _, ref := range columnRefs(in) {
		if ref.Qualified() {
			continue
		}
		found := owners(in, ref.Column)
		if len(found) > 1 {
			tables := make([]string, len(found))
			for i, t := range found {
				tables[i] = t.String()
			}
			return &core.AmbiguityError{
				Rule:   RuleAmbiguousColumn,
				Column: ref.Column,
				Tables: tables,
				Pos:    ref.Pos,
			}
		}
	}
	return nil
}

func checkQualifiedColumns(in *Input) error {
	for _, ref := range columnRefs(in) {
		if !ref.Qualified() {
			continue
		}
		t, ok := in.Query.Resolve(ref.Qualifier)
		if !ok {
			return &core.SchemaError{
				Rule:    RuleBadQualified,
				Message: fmt.Sprintf("unknown table or alias %q in %s", ref.Qualifier, ref),
				Column:  ref.Column,
				Pos:     ref.Pos,
			}
		}
		if ref.Column == "*" {
			continue
		}
		if !core.HasColumn(in.Catalog, t.Name, ref.Column) {
			return &core.SchemaError{
				Rule:    RuleBadQualified,
				Message: fmt.Sprintf("column %q does not exist in table %q", ref.Column, t.Name),
				Table:   t.Name,
				Column:  ref.Column,
				Pos:     ref.Pos,
			}
		}
	}
	return nil
}
