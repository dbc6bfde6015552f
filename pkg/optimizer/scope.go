package optimizer

import (
	"slices"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// resolver attributes column references to relations. Qualified columns
// are matched by alias or table name; unqualified columns are attributed
// only when a catalog names exactly one owning relation.
type resolver struct {
	catalog core.Catalog
}

// relationOf returns the index in rels of the relation ref belongs to.
func (r resolver) relationOf(ref algebra.ColumnRef, rels []algebra.Relation) (int, bool) {
	found := -1
	for i, rel := range rels {
		var match bool
		if ref.Qualified() {
			match = rel.Matches(ref.Qualifier)
		} else {
			match = r.catalog != nil && core.HasColumn(r.catalog, rel.Table, ref.Column)
		}
		if !match {
			continue
		}
		if found >= 0 {
			return -1, false
		}
		found = i
	}
	return found, found >= 0
}

// attribute returns the sorted indexes of the relations text references.
// ok is false when some reference cannot be attributed to exactly one
// relation of rels.
func (r resolver) attribute(text string, rels []algebra.Relation) (idx []int, ok bool) {
	for _, ref := range algebra.ColumnRefs(text) {
		i, found := r.relationOf(ref, rels)
		if !found {
			return nil, false
		}
		if !slices.Contains(idx, i) {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	return idx, true
}

func relationNames(rels []algebra.Relation) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.String()
	}
	return out
}
