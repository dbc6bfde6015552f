package optimizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// RelationColumns is the set of columns a relation must deliver.
// A single "*" means every column.
type RelationColumns struct {
	Relation algebra.Relation `json:"relation"`
	Columns  []string         `json:"columns"`
}

// Requirements is the result of required-column propagation.
type Requirements struct {
	Relations    []RelationColumns `json:"relations"`
	Unattributed []string          `json:"unattributed,omitempty"`
}

// For returns the required columns of the relation known as ref.
func (r *Requirements) For(ref string) ([]string, bool) {
	if r == nil {
		return nil, false
	}
	for _, rc := range r.Relations {
		if rc.Relation.Matches(ref) {
			return rc.Columns, true
		}
	}
	return nil, false
}

// ProjectionPushdown computes which columns each relation has to deliver:
// the projected columns plus every column used by a Selection predicate
// or Join condition below the top Projection. The requirement is threaded
// down to the relations without inserting Projection nodes, so the tree
// is returned unchanged.
type ProjectionPushdown struct {
	resolver resolver
}

// Name implements Pass.
func (*ProjectionPushdown) Name() string { return PassProjectionPushdown }

// Apply implements Pass.
func (p *ProjectionPushdown) Apply(tree algebra.Node) (algebra.Node, []Entry) {
	req := p.Requirements(tree)
	if req == nil {
		return tree, nil
	}

	var entries []Entry
	for _, rc := range req.Relations {
		entries = append(entries, Entry{
			Pass: PassProjectionPushdown,
			Message: fmt.Sprintf("%s only needs to deliver {%s}, narrowing tuples before they flow upward",
				rc.Relation, strings.Join(rc.Columns, ", ")),
		})
	}
	if len(req.Unattributed) > 0 {
		entries = append(entries, Entry{
			Pass:    PassProjectionPushdown,
			Message: fmt.Sprintf("columns {%s} could not be attributed to a single relation and are kept everywhere", strings.Join(req.Unattributed, ", ")),
		})
	}
	return tree, entries
}

// Requirements computes the columns each relation below the top
// Projection must deliver. It returns nil when the root is not a
// Projection.
func (p *ProjectionPushdown) Requirements(tree algebra.Node) *Requirements {
	proj, ok := tree.(*algebra.Projection)
	if !ok {
		return nil
	}

	rels := algebra.Relations(proj.Child)
	req := &requirementSet{cols: make([]map[string]string, len(rels)), rels: rels}

	req.addColumns(p.resolver, proj.Columns)
	algebra.Walk(proj.Child, func(n algebra.Node) bool {
		switch n := n.(type) {
		case *algebra.Selection:
			req.addText(p.resolver, n.Predicate)
		case *algebra.Join:
			req.addText(p.resolver, n.Condition)
		}
		return true
	})

	return req.result()
}

type requirementSet struct {
	rels         []algebra.Relation
	cols         []map[string]string // folded name -> spelling, per relation
	unattributed []string
}

func (s *requirementSet) add(i int, col string) {
	if s.cols[i] == nil {
		s.cols[i] = make(map[string]string)
	}
	key := core.FoldIdent(col)
	if _, ok := s.cols[i][key]; !ok {
		s.cols[i][key] = col
	}
}

func (s *requirementSet) addAll(col string) {
	for i := range s.rels {
		s.add(i, col)
	}
}

// addColumns adds the projected columns. A bare * requires everything.
func (s *requirementSet) addColumns(r resolver, columns string) {
	for _, item := range algebra.SplitColumns(columns) {
		if item == "*" {
			s.addAll("*")
		}
	}
	s.addText(r, columns)
}

func (s *requirementSet) addText(r resolver, text string) {
	for _, ref := range algebra.ColumnRefs(text) {
		i, ok := r.relationOf(ref, s.rels)
		if !ok {
			if !slices.Contains(s.unattributed, ref.String()) {
				s.unattributed = append(s.unattributed, ref.String())
			}
			continue
		}
		s.add(i, ref.Column)
	}
}

func (s *requirementSet) result() *Requirements {
	out := &Requirements{Unattributed: s.unattributed}
	for i, rel := range s.rels {
		var cols []string
		if _, all := s.cols[i]["*"]; all {
			cols = []string{"*"}
		} else {
			for _, c := range s.cols[i] {
				cols = append(cols, c)
			}
			slices.SortFunc(cols, func(a, b string) int {
				return strings.Compare(core.FoldIdent(a), core.FoldIdent(b))
			})
		}
		out.Relations = append(out.Relations, RelationColumns{Relation: rel, Columns: cols})
	}
	return out
}
