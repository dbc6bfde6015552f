package parser

// Rule IDs reported by the parser. Validator rules use their own IDs.
const (
	RuleNoSelect        = "PA01"
	RuleNoFrom          = "PA02"
	RuleDuplicateClause = "PA03"
	RuleClauseOrder     = "PA04"
	RuleKeywordInList   = "PA05"
	RuleEmptyClause     = "PA06"
	RuleBadToken        = "PA07"
	RuleBadTerminator   = "PA08"
	RuleBadTableRef     = "PA10"
	RuleJoinWithoutOn   = "PA11"
	RuleOnWithoutJoin   = "PA12"
	RuleEmptyCondition  = "PA13"
	RuleTrailingText    = "PA14"
	RuleUnsupportedJoin = "PA15"
)

// Common error messages
const (
	ErrEmptyQuery        = "query is empty"
	ErrMissingSelect     = "query must start with SELECT"
	ErrMissingFrom       = "missing FROM clause"
	ErrDuplicateClause   = "%s appears more than once"
	ErrKeywordInList     = "keyword %s cannot appear in the column list"
	ErrClauseOrder       = "%s must come after %s"
	ErrEmptyClause       = "empty %s"
	ErrUnterminated      = "unterminated string literal"
	ErrUnexpectedChar    = "unexpected character %q"
	ErrMisplacedSemi     = "';' is only allowed at the end of the query"
	ErrExpectedTable     = "expected table name after %s, found %s"
	ErrExpectedAlias     = "expected alias after AS, found %s"
	ErrExpectedJoin      = "expected JOIN after INNER, found %s"
	ErrJoinWithoutOn     = "JOIN %s has no ON condition"
	ErrOnWithoutJoin     = "ON without a preceding JOIN"
	ErrEmptyCondition    = "empty ON condition for JOIN %s"
	ErrDuplicateKeyword  = "duplicated keyword %s"
	ErrUnexpectedTrailer = "unexpected %q after %s"
	ErrUnsupportedJoin   = "%s joins are not supported, use INNER JOIN"
	ErrCommaJoin         = "comma-separated tables are not supported, use INNER JOIN"
)
