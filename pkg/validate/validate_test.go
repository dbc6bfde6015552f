package validate_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/parser"
	"github.com/leapstack-labs/relalg/pkg/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() core.MapCatalog {
	return core.MapCatalog{
		"Cliente":   {{Name: "id"}, {Name: "Nome"}, {Name: "Email"}, {Name: "idade"}},
		"Pedido":    {{Name: "id"}, {Name: "cliente_id"}, {Name: "produto_id"}, {Name: "Preco"}},
		"Pedidos":   {{Name: "id"}, {Name: "cliente_id"}, {Name: "valor"}},
		"Produto":   {{Name: "id"}, {Name: "Nome"}, {Name: "cid"}, {Name: "Preco"}},
		"Categoria": {{Name: "id"}, {Name: "Nome"}},
	}
}

// check mirrors the pipeline gate: parse, explain parse failures with the
// syntax rules, then validate.
func check(v *validate.Validator, sql string) error {
	q, err := parser.Parse(sql)
	if err != nil {
		if diag := v.Diagnose(sql); diag != nil {
			return diag
		}
		return err
	}
	return v.Validate(q)
}

func ruleOf(t *testing.T, err error) string {
	t.Helper()
	var syn *core.SyntaxError
	var sch *core.SchemaError
	var amb *core.AmbiguityError
	switch {
	case errors.As(err, &syn):
		return syn.Rule
	case errors.As(err, &sch):
		return sch.Rule
	case errors.As(err, &amb):
		return amb.Rule
	}
	t.Fatalf("unexpected error type %T: %v", err, err)
	return ""
}

func TestValidate_InvalidQueries(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		kind core.ErrorKind
		rule string
	}{
		{"duplicated INNER JOIN", "SELECT * FROM Cliente INNER JOIN INNER JOIN Produto ON Cliente.id = Produto.id;", core.KindSyntax, validate.RuleDuplicateKeyword},
		{"duplicated ON", "SELECT * FROM Cliente INNER JOIN Produto ON ON Cliente.id = Produto.id;", core.KindSyntax, validate.RuleDuplicateKeyword},
		{"WHERE as table name", "SELECT * FROM Cliente INNER JOIN WHERE ON Cliente.id = WHERE.id;", core.KindSyntax, validate.RuleReservedIdent},
		{"SELECT as value", "SELECT * FROM Cliente WHERE Nome = SELECT;", core.KindSyntax, validate.RuleReservedIdent},
		{"ON without JOIN", "SELECT Nome FROM Cliente ON idCliente = 1;", core.KindSyntax, parser.RuleOnWithoutJoin},
		{"WHERE before JOIN", "SELECT * FROM Cliente WHERE INNER JOIN Produto ON Cliente.id = Produto.id;", core.KindSyntax, parser.RuleClauseOrder},
		{"operator >>", `SELECT * FROM Cliente WHERE Nome >> "A";`, core.KindSyntax, validate.RuleInvalidComparison},
		{"operator > >", "SELECT * FROM Cliente WHERE Preco > > 50;", core.KindSyntax, validate.RuleInvalidComparison},
		{"operator ==", "SELECT * FROM Cliente WHERE id == 1", core.KindSyntax, validate.RuleInvalidComparison},
		{"parenthesized column", "SELECT Nome, (Email) FROM Cliente;", core.KindSyntax, validate.RuleBareParenColumn},
		{"AND OR", `SELECT * FROM Cliente WHERE Nome = "A" AND OR Email = "B";`, core.KindSyntax, validate.RuleAdjacentLogical},
		{"AND AND", "SELECT * FROM Cliente WHERE Nome = 'A' AND AND Email = 'B'", core.KindSyntax, validate.RuleAdjacentLogical},
		{"dangling AND", "SELECT * FROM Cliente WHERE Nome = 'A' AND;", core.KindSyntax, validate.RuleDanglingLogical},
		{"leading OR", "SELECT * FROM Cliente WHERE OR Nome = 'A'", core.KindSyntax, validate.RuleDanglingLogical},
		{"unclosed parenthesis", "SELECT * FROM Cliente WHERE (Nome = 'A'", core.KindSyntax, validate.RuleUnbalancedParens},
		{"unmatched parenthesis", "SELECT * FROM Cliente WHERE Nome = 'A')", core.KindSyntax, validate.RuleUnbalancedParens},
		{"keyword as alias", "SELECT * FROM Cliente AS WHERE", core.KindSyntax, validate.RuleReservedIdent},
		{"keyword as column", "SELECT ORDER FROM Cliente", core.KindSyntax, validate.RuleReservedIdent},
		{"unknown table", "SELECT * FROM Ghost;", core.KindSchema, validate.RuleUnknownTable},
		{"unknown joined table", "SELECT * FROM Cliente c JOIN Ghost g ON c.id = g.id", core.KindSchema, validate.RuleUnknownTable},
		{"duplicate alias", "SELECT * FROM Cliente c INNER JOIN Pedido c ON c.id = c.cliente_id", core.KindSchema, validate.RuleDuplicateName},
		{"unknown bare column", "SELECT Apelido FROM Cliente", core.KindSchema, validate.RuleUnknownColumn},
		{"unknown bare column in WHERE", "SELECT Nome FROM Cliente WHERE Apelido = 'x'", core.KindSchema, validate.RuleUnknownColumn},
		{"ambiguous column", "SELECT Nome FROM Produto INNER JOIN Categoria ON Produto.cid = Categoria.id", core.KindAmbiguity, validate.RuleAmbiguousColumn},
		{"ambiguous in ON", "SELECT c.Nome FROM Cliente c JOIN Pedido p ON id = p.cliente_id", core.KindAmbiguity, validate.RuleAmbiguousColumn},
		{"unknown qualifier", "SELECT x.Nome FROM Cliente c", core.KindSchema, validate.RuleBadQualified},
		{"unknown qualified column", "SELECT c.Apelido FROM Cliente c", core.KindSchema, validate.RuleBadQualified},
		{"qualified column of other table", "SELECT p.Nome FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id", core.KindSchema, validate.RuleBadQualified},
	}

	v := validate.New(testCatalog(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(v, tt.sql)
			require.Error(t, err)
			assert.Equal(t, tt.kind, core.Kind(err), err.Error())
			assert.Equal(t, tt.rule, ruleOf(t, err), err.Error())
		})
	}
}

func TestValidate_ValidQueries(t *testing.T) {
	queries := []string{
		"SELECT Nome, Email FROM Cliente WHERE idade > 25;",
		"SELECT * FROM Cliente INNER JOIN Pedidos ON Cliente.id = Pedidos.cliente_id;",
		"SELECT c.nome, p.valor FROM cliente c INNER JOIN pedidos p ON c.id = p.cliente_id WHERE p.valor > 500;",
		"SELECT c.Nome, p.Preco FROM Cliente c INNER JOIN Pedido p ON c.id = p.cliente_id WHERE p.Preco > 100 AND c.Nome = 'A'",
		"SELECT c.*, Email FROM Cliente c WHERE c.Nome = 'FROM WHERE' OR c.idade BETWEEN 18 AND 30",
		"SELECT UPPER(c.Nome) AS nome FROM Cliente AS c WHERE c.Email IS NOT NULL",
		"SELECT Cliente.Nome FROM Cliente c",
		"SELECT * FROM Cliente c JOIN Pedido p ON c.id = p.cliente_id JOIN Produto pr ON p.produto_id = pr.id WHERE pr.Preco <> 0 AND (c.idade >= 18 OR c.idade <= 65)",
	}

	v := validate.New(testCatalog(), nil)
	for _, sql := range queries {
		t.Run(sql, func(t *testing.T) {
			assert.NoError(t, check(v, sql))
		})
	}
}

func TestValidate_SpecificDiagnostics(t *testing.T) {
	v := validate.New(testCatalog(), nil)

	err := check(v, "SELECT * FROM Ghost;")
	var sch *core.SchemaError
	require.True(t, errors.As(err, &sch))
	assert.Equal(t, "Ghost", sch.Table)
	assert.Contains(t, sch.Error(), `table "Ghost" does not exist`)
	assert.Equal(t, "1:15", sch.Pos.String())

	err = check(v, "SELECT Nome FROM Produto INNER JOIN Categoria ON Produto.cid = Categoria.id")
	var amb *core.AmbiguityError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, "Nome", amb.Column)
	assert.Equal(t, []string{"Produto", "Categoria"}, amb.Tables)

	err = check(v, `SELECT * FROM Cliente WHERE Nome >> "A";`)
	var syn *core.SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, ">>", syn.Token)
	assert.Equal(t, "1:34", syn.Pos.String())

	err = check(v, "SELECT * FROM Cliente WHERE Preco > > 50;")
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, "> >", syn.Token)

	err = check(v, "SELECT Nome, (Email) FROM Cliente;")
	require.True(t, errors.As(err, &syn))
	assert.Contains(t, syn.Message, `"Email"`)
}

func TestValidate_DisabledRule(t *testing.T) {
	v := validate.New(testCatalog(), validate.NewConfig().Disable("sy05"))
	assert.NoError(t, check(v, "SELECT * FROM Cliente WHERE Nome >> 'A'"))
}

func TestValidate_NoCatalogSkipsSchemaRules(t *testing.T) {
	v := validate.New(nil, nil)
	assert.NoError(t, check(v, "SELECT * FROM Ghost"))
	assert.Error(t, check(v, "SELECT * FROM Ghost WHERE a = 1 AND OR b = 2"))
}

func TestValidate_QueryWithoutRaw(t *testing.T) {
	q := &core.Query{
		Clauses: core.ParsedClauses{Columns: "Apelido", From: "Cliente"},
		Base:    core.TableRef{Name: "Cliente"},
	}
	err := validate.New(testCatalog(), nil).Validate(q)
	assert.Equal(t, core.KindSchema, core.Kind(err))
}

func TestDiagnose(t *testing.T) {
	v := validate.New(nil, nil)
	assert.NoError(t, v.Diagnose("SELECT * FROM Cliente"))
	assert.Error(t, v.Diagnose("SELECT * FROM Cliente WHERE Nome = SELECT"))
}

func TestRules(t *testing.T) {
	rules := validate.Rules()
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
		assert.NotEmpty(t, r.Description, r.ID)
		assert.NotNil(t, r.Check, r.ID)
	}
	assert.Equal(t, []string{"SY01", "SY02", "SY03", "SY04", "SY05", "SY06", "SY07", "SC01", "SC04", "SC02", "AM01", "SC03"}, ids)

	rule, ok := validate.GetByID("am01")
	require.True(t, ok)
	assert.Equal(t, validate.GroupSchema, rule.Group)
	_, ok = validate.GetByID("XX99")
	assert.False(t, ok)
}
