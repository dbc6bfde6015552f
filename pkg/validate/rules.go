package validate

// Rule IDs.
const (
	RuleDuplicateKeyword  = "SY01"
	RuleUnbalancedParens  = "SY02"
	RuleDanglingLogical   = "SY03"
	RuleAdjacentLogical   = "SY04"
	RuleInvalidComparison = "SY05"
	RuleBareParenColumn   = "SY06"
	RuleReservedIdent     = "SY07"
	RuleUnknownTable      = "SC01"
	RuleDuplicateName     = "SC04"
	RuleUnknownColumn     = "SC02"
	RuleAmbiguousColumn   = "AM01"
	RuleBadQualified      = "SC03"
)

// rules is the battery in evaluation order.
var rules = []RuleDef{
	{
		ID:          RuleDuplicateKeyword,
		Name:        "syntax.duplicate-keyword",
		Group:       GroupSyntax,
		Description: "Structural keywords must not be repeated back to back.",
		BadExample:  "SELECT * FROM Cliente INNER JOIN INNER JOIN Produto ON Cliente.id = Produto.id",
		Check:       checkDuplicateKeywords,
	},
	{
		ID:          RuleUnbalancedParens,
		Name:        "syntax.unbalanced-parentheses",
		Group:       GroupSyntax,
		Description: "Every opening parenthesis needs a matching closing one.",
		BadExample:  "SELECT * FROM Cliente WHERE (Nome = 'A'",
		Check:       checkParentheses,
	},
	{
		ID:          RuleDanglingLogical,
		Name:        "syntax.dangling-logical",
		Group:       GroupSyntax,
		Description: "AND and OR need an operand on both sides.",
		BadExample:  "SELECT * FROM Cliente WHERE Nome = 'A' AND",
		Check:       checkDanglingLogical,
	},
	{
		ID:          RuleAdjacentLogical,
		Name:        "syntax.adjacent-logical",
		Group:       GroupSyntax,
		Description: "Two logical operators cannot follow each other.",
		BadExample:  "SELECT * FROM Cliente WHERE Nome = 'A' AND OR Email = 'B'",
		Check:       checkAdjacentLogical,
	},
	{
		ID:          RuleInvalidComparison,
		Name:        "syntax.invalid-comparison",
		Group:       GroupSyntax,
		Description: "Comparison operators cannot be doubled or stacked.",
		BadExample:  "SELECT * FROM Cliente WHERE Preco > > 50",
		Check:       checkComparisons,
	},
	{
		ID:          RuleBareParenColumn,
		Name:        "syntax.parenthesized-column",
		Group:       GroupSyntax,
		Description: "A parenthesized column in the select list must be a function argument.",
		BadExample:  "SELECT Nome, (Email) FROM Cliente",
		Check:       checkParenthesizedColumns,
	},
	{
		ID:          RuleReservedIdent,
		Name:        "syntax.reserved-identifier",
		Group:       GroupSyntax,
		Description: "Reserved keywords cannot name tables, aliases, columns or values.",
		BadExample:  "SELECT * FROM Cliente INNER JOIN WHERE ON Cliente.id = WHERE.id",
		Check:       checkReservedIdentifiers,
	},
	{
		ID:          RuleUnknownTable,
		Name:        "schema.unknown-table",
		Group:       GroupSchema,
		Description: "Every table in FROM and JOIN must exist in the catalog.",
		BadExample:  "SELECT * FROM Ghost",
		Check:       checkTablesExist,
	},
	{
		ID:          RuleDuplicateName,
		Name:        "schema.duplicate-name",
		Group:       GroupSchema,
		Description: "Each table in scope needs a distinct name or alias.",
		BadExample:  "SELECT * FROM Cliente c INNER JOIN Pedido c ON c.id = c.cliente_id",
		Check:       checkDistinctNames,
	},
	{
		ID:          RuleUnknownColumn,
		Name:        "schema.unknown-column",
		Group:       GroupSchema,
		Description: "An unqualified column must exist in some table in scope.",
		BadExample:  "SELECT Apelido FROM Cliente",
		Check:       checkBareColumnsExist,
	},
	{
		ID:          RuleAmbiguousColumn,
		Name:        "ambiguous.column",
		Group:       GroupSchema,
		Description: "An unqualified column must exist in exactly one table in scope.",
		BadExample:  "SELECT Nome FROM Produto INNER JOIN Categoria ON Produto.cid = Categoria.id",
		Check:       checkBareColumnsUnique,
	},
	{
		ID:          RuleBadQualified,
		Name:        "schema.qualified-column",
		Group:       GroupSchema,
		Description: "A qualified column needs a qualifier in scope and a column of that table.",
		BadExample:  "SELECT x.Nome FROM Cliente c",
		Check:       checkQualifiedColumns,
	},
}
