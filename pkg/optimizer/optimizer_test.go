package optimizer

import (
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() core.MapCatalog {
	return core.MapCatalog{
		"Cliente":   {{Name: "id"}, {Name: "Nome"}, {Name: "Email"}, {Name: "idade"}},
		"Pedido":    {{Name: "id"}, {Name: "cliente_id"}, {Name: "produto_id"}, {Name: "Preco"}},
		"Produto":   {{Name: "id"}, {Name: "Nome"}, {Name: "cid"}, {Name: "Preco"}},
		"Categoria": {{Name: "id"}, {Name: "Nome"}},
	}
}

func build(t *testing.T, sql string) (*core.Query, algebra.Node) {
	t.Helper()
	q, err := parser.Parse(sql)
	require.NoError(t, err)
	return q, algebra.Build(q)
}

const exampleQuery = "SELECT c.Nome, p.Preco FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id WHERE p.Preco > 100 AND c.Nome = 'A'"

var propertyQueries = []string{
	exampleQuery,
	"SELECT c.Nome, pr.Nome FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id JOIN Produto pr ON p.produto_id = pr.id " +
		"WHERE pr.Preco > 10 AND c.Nome = 'A' AND (c.idade > 1 OR p.Preco < 5) AND 1 = 1",
	"SELECT Nome FROM Cliente WHERE idade > 30 AND Email = 'x'",
	"SELECT c.Nome FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id WHERE Preco > 5",
	"SELECT * FROM Cliente JOIN Pedido ON Cliente.id = Pedido.cliente_id JOIN Produto ON Pedido.produto_id = Produto.id " +
		"JOIN Categoria ON Produto.cid = Categoria.id WHERE Categoria.Nome = 'X'",
	"SELECT Nome FROM Cliente",
	"SELECT * FROM Cliente c JOIN Produto pr ON c.id = pr.cid WHERE Nome = 'x' AND pr.Preco BETWEEN 1 AND 5",
	"SELECT c.Nome FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id WHERE c.Nome = 'A' OR p.Preco > 100 AND c.id = 1",
}

func TestOptimize_Example(t *testing.T) {
	_, tree := build(t, exampleQuery)
	res := New(Config{Catalog: testCatalog()}).Optimize(tree)

	want := &algebra.Projection{
		Columns: "c.Nome, p.Preco",
		Child: &algebra.Join{
			Condition: "c.id = p.cliente_id",
			Left: &algebra.Selection{
				Predicate: "c.Nome = 'A'",
				Child:     &algebra.Rename{Alias: "c", Child: &algebra.Table{Name: "Cliente"}},
			},
			Right: &algebra.Selection{
				Predicate: "p.Preco > 100",
				Child:     &algebra.Rename{Alias: "p", Child: &algebra.Table{Name: "Pedido"}},
			},
			Algorithm: algebra.HashJoin,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree))

	assert.Len(t, res.Log.ByPass(PassSelectionPushdown), 2)
	assert.Len(t, res.Log.ByPass(PassProjectionPushdown), 2)
	assert.Empty(t, res.Log.ByPass(PassJoinReordering))
	require.Len(t, res.Log.ByPass(PassJoinAlgorithm), 1)
	assert.Contains(t, res.Log.ByPass(PassJoinAlgorithm)[0].Message, "hash_join")
	assert.Contains(t, res.Log[0].Message, "σ(p.Preco > 100) into the right input")
	assert.Contains(t, res.Log[1].Message, "σ(c.Nome = 'A') into the left input")

	require.NotNil(t, res.Requirements)
	cols, ok := res.Requirements.For("c")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "Nome"}, cols)
	cols, ok = res.Requirements.For("Pedido")
	require.True(t, ok)
	assert.Equal(t, []string{"cliente_id", "Preco"}, cols)
	assert.Empty(t, res.Requirements.Unattributed)
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	for _, sql := range propertyQueries {
		_, tree := build(t, sql)
		before := algebra.Clone(tree)
		New(Config{Catalog: testCatalog()}).Optimize(tree)
		assert.True(t, algebra.Equal(before, tree), sql)
	}
}

func TestOptimize_Properties(t *testing.T) {
	cat := testCatalog()
	r := resolver{catalog: cat}
	o := New(Config{Catalog: cat})

	for _, sql := range propertyQueries {
		t.Run(sql, func(t *testing.T) {
			q, tree := build(t, sql)
			res := o.Optimize(tree)

			// Same base tables.
			want := algebra.Tables(tree)
			got := algebra.Tables(res.Tree)
			slices.Sort(want)
			slices.Sort(got)
			assert.Equal(t, want, got)

			// Same WHERE conjuncts.
			assert.Equal(t, normalize(algebra.SplitConjuncts(q.Clauses.Where)), normalize(algebra.SelectionConjuncts(res.Tree)))

			// Every attributable predicate sits where all the relations it
			// references are in scope.
			all := algebra.Relations(res.Tree)
			inScope := func(text string, scope []algebra.Relation) bool {
				idx, ok := r.attribute(text, all)
				if !ok {
					return true
				}
				for _, i := range idx {
					if !slices.Contains(scope, all[i]) {
						return false
					}
				}
				return true
			}

			algebra.Walk(res.Tree, func(n algebra.Node) bool {
				switch n := n.(type) {
				case *algebra.Selection:
					scope := algebra.Relations(n.Child)
					for _, c := range algebra.SplitConjuncts(n.Predicate) {
						assert.True(t, inScope(c, scope), "σ(%s) placed above %v", c, scope)
					}
				case *algebra.Join:
					require.NotNil(t, n.Left)
					require.NotNil(t, n.Right)
					assert.NotEqual(t, algebra.AlgorithmNone, n.Algorithm)
					assert.True(t, inScope(n.Condition, algebra.Relations(n)), "⨝(%s) out of scope", n.Condition)
				}
				return true
			})
		})
	}
}

func normalize(conjuncts []string) []string {
	out := make([]string, len(conjuncts))
	for i, c := range conjuncts {
		out[i] = algebra.TrimParens(c)
	}
	slices.Sort(out)
	return out
}

func TestPushSelections_Idempotent(t *testing.T) {
	o := New(Config{Catalog: testCatalog()})
	for _, sql := range propertyQueries {
		_, tree := build(t, sql)
		once, _ := o.PushSelections(tree)
		twice, entries := o.PushSelections(once)
		assert.Empty(t, entries, sql)
		assert.True(t, algebra.Equal(once, twice), sql)
	}
}

func TestPushSelections(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		catalog core.Catalog
		want    algebra.Node
	}{
		{
			name: "constant conjunct stays above the join",
			sql:  "SELECT * FROM A JOIN B ON A.id = B.id WHERE 1 = 1 AND A.x = 2",
			want: &algebra.Projection{
				Columns: "*",
				Child: &algebra.Selection{
					Predicate: "1 = 1",
					Child: &algebra.Join{
						Condition: "A.id = B.id",
						Left:      &algebra.Selection{Predicate: "A.x = 2", Child: &algebra.Table{Name: "A"}},
						Right:     &algebra.Table{Name: "B"},
					},
				},
			},
		},
		{
			name: "bare column without catalog stays",
			sql:  "SELECT * FROM A JOIN B ON A.id = B.id WHERE x = 2",
			want: &algebra.Projection{
				Columns: "*",
				Child: &algebra.Selection{
					Predicate: "x = 2",
					Child: &algebra.Join{
						Condition: "A.id = B.id",
						Left:      &algebra.Table{Name: "A"},
						Right:     &algebra.Table{Name: "B"},
					},
				},
			},
		},
		{
			name:    "bare column attributed through the catalog",
			sql:     "SELECT c.Nome FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id WHERE Preco > 5",
			catalog: testCatalog(),
			want: &algebra.Projection{
				Columns: "c.Nome",
				Child: &algebra.Join{
					Condition: "c.id = p.cliente_id",
					Left:      &algebra.Rename{Alias: "c", Child: &algebra.Table{Name: "Cliente"}},
					Right: &algebra.Selection{
						Predicate: "Preco > 5",
						Child:     &algebra.Rename{Alias: "p", Child: &algebra.Table{Name: "Pedido"}},
					},
				},
			},
		},
		{
			name:    "ambiguous bare column stays",
			sql:     "SELECT * FROM Cliente c JOIN Produto pr ON c.id = pr.cid WHERE Nome = 'x'",
			catalog: testCatalog(),
			want: &algebra.Projection{
				Columns: "*",
				Child: &algebra.Selection{
					Predicate: "Nome = 'x'",
					Child: &algebra.Join{
						Condition: "c.id = pr.cid",
						Left:      &algebra.Rename{Alias: "c", Child: &algebra.Table{Name: "Cliente"}},
						Right:     &algebra.Rename{Alias: "pr", Child: &algebra.Table{Name: "Produto"}},
					},
				},
			},
		},
		{
			name: "cross-relation disjunction stops at the lowest covering join",
			sql:  "SELECT * FROM A JOIN B ON A.id = B.id JOIN C ON B.id = C.id WHERE (A.x = 1 OR B.y = 2) AND C.z = 3",
			want: &algebra.Projection{
				Columns: "*",
				Child: &algebra.Join{
					Condition: "B.id = C.id",
					Left: &algebra.Selection{
						Predicate: "(A.x = 1 OR B.y = 2)",
						Child: &algebra.Join{
							Condition: "A.id = B.id",
							Left:      &algebra.Table{Name: "A"},
							Right:     &algebra.Table{Name: "B"},
						},
					},
					Right: &algebra.Selection{Predicate: "C.z = 3", Child: &algebra.Table{Name: "C"}},
				},
			},
		},
		{
			name: "OR binds looser than AND",
			sql:  "SELECT * FROM A JOIN B ON A.id = B.id WHERE A.x = 1 OR B.y = 2 AND A.z = 3",
			want: &algebra.Projection{
				Columns: "*",
				Child: &algebra.Selection{
					Predicate: "A.x = 1 OR B.y = 2 AND A.z = 3",
					Child: &algebra.Join{
						Condition: "A.id = B.id",
						Left:      &algebra.Table{Name: "A"},
						Right:     &algebra.Table{Name: "B"},
					},
				},
			},
		},
		{
			name: "single table keeps its selection",
			sql:  "SELECT x FROM A WHERE A.x = 1 AND y = 2",
			want: &algebra.Projection{
				Columns: "x",
				Child:   &algebra.Selection{Predicate: "A.x = 1 AND y = 2", Child: &algebra.Table{Name: "A"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tree := build(t, tt.sql)
			got, _ := New(Config{Catalog: tt.catalog}).PushSelections(tree)
			assert.True(t, algebra.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestPushSelections_MergesStackedSelections(t *testing.T) {
	tree := &algebra.Selection{
		Predicate: "A.x = 1",
		Child: &algebra.Selection{
			Predicate: "A.y = 2",
			Child:     &algebra.Table{Name: "A"},
		},
	}
	got, entries := New(Config{}).PushSelections(tree)

	want := &algebra.Selection{Predicate: "A.x = 1 AND A.y = 2", Child: &algebra.Table{Name: "A"}}
	assert.True(t, algebra.Equal(want, got))
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "merged")
}

func TestJoinReordering(t *testing.T) {
	_, tree := build(t, "SELECT * FROM A a JOIN B b ON a.id = b.aid JOIN C c ON b.id = c.bid WHERE c.x = 1")
	res := New(Config{}).Optimize(tree)

	want := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Condition: "a.id = b.aid",
			Left: &algebra.Join{
				Condition: "b.id = c.bid",
				Left: &algebra.Selection{
					Predicate: "c.x = 1",
					Child:     &algebra.Rename{Alias: "c", Child: &algebra.Table{Name: "C"}},
				},
				Right:     &algebra.Rename{Alias: "b", Child: &algebra.Table{Name: "B"}},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Rename{Alias: "a", Child: &algebra.Table{Name: "A"}},
			Algorithm: algebra.HashJoin,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree))

	entries := res.Log.ByPass(PassJoinReordering)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Message, "reordered joins from [A a (weight 0.5), B b (weight 0.5), C c (weight 0.25)]"), entries[0].Message)
}

func TestJoinReordering_CrossJoinFallback(t *testing.T) {
	_, tree := build(t, "SELECT * FROM A JOIN B ON A.id = B.id JOIN C ON B.k > 0")
	res := New(Config{}).Optimize(tree)

	want := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Condition: "",
			Left: &algebra.Join{
				Condition: "A.id = B.id AND B.k > 0",
				Left:      &algebra.Table{Name: "A"},
				Right:     &algebra.Table{Name: "B"},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Table{Name: "C"},
			Algorithm: algebra.NestedLoop,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree))

	entries := res.Log.ByPass(PassJoinReordering)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "falling back to a cross join")
	assert.Contains(t, res.Log.ByPass(PassJoinAlgorithm)[1].Message, "cross join")
}

func TestJoinReordering_SingleRelationConditionDoesNotLink(t *testing.T) {
	_, tree := build(t, "SELECT * FROM A JOIN B ON A.id = B.id JOIN C ON C.flag = 1 JOIN D ON D.x = A.x WHERE C.y = 2")
	res := New(Config{}).Optimize(tree)

	// C weighs the same as D but nothing links it to A or B, so D goes first.
	want := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Condition: "C.flag = 1",
			Left: &algebra.Join{
				Condition: "D.x = A.x",
				Left: &algebra.Join{
					Condition: "A.id = B.id",
					Left:      &algebra.Table{Name: "A"},
					Right:     &algebra.Table{Name: "B"},
					Algorithm: algebra.HashJoin,
				},
				Right:     &algebra.Table{Name: "D"},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Selection{Predicate: "C.y = 2", Child: &algebra.Table{Name: "C"}},
			Algorithm: algebra.NestedLoop,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree), "got %#v", res.Tree)

	entries := res.Log.ByPass(PassJoinReordering)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "no join condition links C (weight 0.5)")
	assert.Contains(t, entries[0].Message, "falling back to a cross join")
	assert.Contains(t, entries[1].Message, "reordered joins")
}

func TestJoinReordering_CustomEstimator(t *testing.T) {
	_, tree := build(t, "SELECT * FROM A JOIN B ON A.id = B.id JOIN C ON B.id = C.id")
	est := EstimatorFunc(func(s Subtree) float64 {
		if s.Relations[0].Table == "C" {
			return 0
		}
		return 1
	})
	res := New(Config{Estimator: est}).Optimize(tree)

	want := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Condition: "A.id = B.id",
			Left: &algebra.Join{
				Condition: "B.id = C.id",
				Left:      &algebra.Table{Name: "C"},
				Right:     &algebra.Table{Name: "B"},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Table{Name: "A"},
			Algorithm: algebra.HashJoin,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree))
}

func TestJoinReordering_ConstantConditionOnTopJoin(t *testing.T) {
	_, tree := build(t, "SELECT * FROM A JOIN B ON 1 = 1 JOIN C ON B.id = C.id")
	res := New(Config{}).Optimize(tree)

	// B and C are equi-joined and weigh less than A, so they meet first.
	want := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Condition: "1 = 1",
			Left: &algebra.Join{
				Condition: "B.id = C.id",
				Left:      &algebra.Table{Name: "B"},
				Right:     &algebra.Table{Name: "C"},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Table{Name: "A"},
			Algorithm: algebra.NestedLoop,
		},
	}
	assert.True(t, algebra.Equal(want, res.Tree))
}

func TestHeuristicEstimator(t *testing.T) {
	tests := []struct {
		name string
		in   Subtree
		want float64
	}{
		{"single table", Subtree{Relations: []algebra.Relation{{Table: "A"}}}, 1},
		{"filtered", Subtree{Relations: []algebra.Relation{{Table: "A"}}, Selections: 1}, 0.5},
		{"filtered and equi-joined", Subtree{Relations: []algebra.Relation{{Table: "A"}}, Selections: 1, EquiJoined: true}, 0.25},
		{"self join counts once", Subtree{Relations: []algebra.Relation{{Table: "A", Alias: "x"}, {Table: "a", Alias: "y"}}}, 1},
		{"two tables", Subtree{Relations: []algebra.Relation{{Table: "A"}, {Table: "B"}}, Selections: 2}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HeuristicEstimator{}.Estimate(tt.in), 1e-9)
		})
	}
}

func TestRequirements(t *testing.T) {
	tests := []struct {
		name         string
		sql          string
		ref          string
		want         []string
		unattributed []string
	}{
		{"star", "SELECT * FROM A JOIN B ON A.id = B.id", "A", []string{"*"}, nil},
		{"qualified star", "SELECT A.* FROM A JOIN B ON A.id = B.bid", "B", []string{"bid"}, nil},
		{"unattributed", "SELECT x FROM A JOIN B ON A.id = B.id", "A", []string{"id"}, []string{"x"}},
		{"case-insensitive dedup", "SELECT A.Id FROM A JOIN B ON a.id = B.id", "A", []string{"Id"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tree := build(t, tt.sql)
			req := (&ProjectionPushdown{}).Requirements(tree)
			require.NotNil(t, req)
			got, ok := req.For(tt.ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unattributed, req.Unattributed)
		})
	}

	assert.Nil(t, (&ProjectionPushdown{}).Requirements(&algebra.Table{Name: "A"}))
	var none *Requirements
	_, ok := none.For("A")
	assert.False(t, ok)
}

func TestOptimize_Concurrent(t *testing.T) {
	o := New(Config{Catalog: testCatalog()})
	_, tree := build(t, exampleQuery)
	want := o.Optimize(tree)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := o.Optimize(tree)
			assert.True(t, algebra.Equal(want.Tree, got.Tree))
			assert.Equal(t, want.Log, got.Log)
		}()
	}
	wg.Wait()
}

func TestPasses(t *testing.T) {
	var names []string
	for _, p := range New(Config{}).Passes() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{PassSelectionPushdown, PassProjectionPushdown, PassJoinReordering, PassJoinAlgorithm}, names)
}
