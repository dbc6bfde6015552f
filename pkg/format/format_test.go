package format

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/optimizer"
	"github.com/leapstack-labs/relalg/pkg/parser"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleQuery = "SELECT c.Nome, p.Preco FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id WHERE p.Preco > 100 AND c.Nome = 'A'"

func buildTree(t *testing.T, sql string) algebra.Node {
	t.Helper()
	q, err := parser.Parse(sql)
	require.NoError(t, err)
	return algebra.Build(q)
}

func render(n algebra.Node) []byte {
	return []byte("-- expression --\n" + Expression(n) + "\n-- tree --\n" + Tree(n) + "-- plan --\n" + Plan(n))
}

func TestRender_Golden(t *testing.T) {
	unoptimized := buildTree(t, exampleQuery)
	optimized := optimizer.New(optimizer.Config{}).Optimize(unoptimized).Tree

	cross := &algebra.Projection{
		Columns: "*",
		Child: &algebra.Join{
			Left: &algebra.Join{
				Condition: "A.id = B.id AND B.k BETWEEN 1 AND 5",
				Left:      &algebra.Table{Name: "A"},
				Right:     &algebra.Table{Name: "B"},
				Algorithm: algebra.HashJoin,
			},
			Right:     &algebra.Table{Name: "C"},
			Algorithm: algebra.NestedLoop,
		},
	}

	tests := []struct {
		name string
		tree algebra.Node
	}{
		{"example_unoptimized", unoptimized},
		{"example_optimized", optimized},
		{"cross_join", cross},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, render(tt.tree))
		})
	}
}

func TestExpression(t *testing.T) {
	tests := []struct {
		name string
		tree algebra.Node
		want string
	}{
		{
			name: "table",
			tree: &algebra.Table{Name: "Cliente"},
			want: "Cliente",
		},
		{
			name: "projection over selection",
			tree: &algebra.Projection{
				Columns: "Nome",
				Child:   &algebra.Selection{Predicate: "idade > 30 and Email = 'x'", Child: &algebra.Table{Name: "Cliente"}},
			},
			want: "π (Nome) (σ (idade > 30 ∧ Email = 'x') (Cliente))",
		},
		{
			name: "quoted and untouched",
			tree: &algebra.Selection{Predicate: "Nome = 'A AND B'", Child: &algebra.Table{Name: "T"}},
			want: "σ (Nome = 'A AND B') (T)",
		},
		{
			name: "left-deep chain",
			tree: &algebra.Join{
				Condition: "B.id = C.id",
				Left: &algebra.Join{
					Condition: "A.id = B.id",
					Left:      &algebra.Table{Name: "A"},
					Right:     &algebra.Table{Name: "B"},
				},
				Right: &algebra.Table{Name: "C"},
			},
			want: "(A ⨝ (A.id = B.id) B) ⨝ (B.id = C.id) C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expression(tt.tree))
		})
	}
}

func TestPredicate(t *testing.T) {
	assert.Equal(t, "a = 1 ∧ b BETWEEN 1 AND 2 ∧ c = 3", predicate("a = 1 AND b BETWEEN 1 AND 2 AND c = 3"))
	assert.Equal(t, "(a = 1 OR b = 2) ∧ c = 3", predicate("(a = 1 OR b = 2) AND c = 3"))
	assert.Equal(t, "a = 1 ∧ b = 2", predicate("a = 1 ∧ b = 2"))
}

func TestSteps(t *testing.T) {
	steps := Steps(buildTree(t, "SELECT Nome FROM Cliente WHERE idade > 30"))
	require.Len(t, steps, 3)
	assert.Equal(t, Step{ID: 1, Kind: StepScan, Detail: "Cliente"}, steps[0])
	assert.Equal(t, Step{ID: 2, Kind: StepSelection, Detail: "σ (idade > 30)", Inputs: []int{1}}, steps[1])
	assert.Equal(t, Step{ID: 3, Kind: StepProjection, Detail: "π (Nome)", Inputs: []int{2}}, steps[2])
}

func TestIDAllocator(t *testing.T) {
	var ids IDAllocator
	assert.Equal(t, 0, ids.Issued())
	assert.Equal(t, 1, ids.Next())
	assert.Equal(t, 2, ids.Next())
	assert.Equal(t, 2, ids.Issued())
}

func TestPlan_Concurrent(t *testing.T) {
	tree := buildTree(t, exampleQuery)
	want := Plan(tree)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Plan(tree))
		}()
	}
	wg.Wait()
}
