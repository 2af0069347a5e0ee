package sqlref

import (
	"sort"
	"strings"
)

// keywords holds SQL keywords excluded from column-reference extraction.
var keywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"order": true, "having": true, "limit": true, "offset": true,
	"join": true, "inner": true, "left": true, "right": true, "full": true,
	"outer": true, "cross": true, "on": true, "using": true, "as": true,
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"null": true, "like": true, "ilike": true, "between": true,
	"case": true, "when": true, "then": true, "else": true, "end": true,
	"union": true, "all": true, "distinct": true, "intersect": true,
	"except": true, "with": true, "over": true, "partition": true,
	"window": true, "rows": true, "range": true, "unbounded": true,
	"preceding": true, "following": true, "current": true, "row": true,
	"asc": true, "desc": true, "nulls": true, "first": true, "last": true,
	"cast": true, "true": true, "false": true, "exists": true, "any": true,
	"interval": true, "qualify": true, "lateral": true,
}

// tableContext marks keywords after which a bare identifier names a table,
// not a column.
var tableContext = map[string]bool{
	"from": true, "join": true, "into": true, "update": true, "table": true,
}

// ExtractColumns returns the set of column names referenced by a SQL body,
// sorted and lowercased. The extraction is lexical: qualified references
// take the final segment, identifiers directly followed by '(' are treated
// as function calls, identifiers in FROM/JOIN position as tables, and
// aliases introduced by AS are skipped. An error indicates the text could
// not be tokenized; callers degrade to "no reference signal".
func ExtractColumns(sqlText string) ([]string, error) {
	tokens, err := scan(sqlText)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]bool)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenIdent || keywords[tok.literal] {
			continue
		}

		// Function call: count(...), upper(...).
		if i+1 < len(tokens) && tokens[i+1].kind == tokenSymbol && tokens[i+1].literal == "(" {
			continue
		}

		// Alias after AS.
		if i > 0 && tokens[i-1].kind == tokenIdent && tokens[i-1].literal == "as" {
			continue
		}

		// Table name in FROM/JOIN position; also swallow a dotted
		// schema.table reference and a trailing alias.
		if i > 0 && tokens[i-1].kind == tokenIdent && tableContext[tokens[i-1].literal] {
			i = skipTableRef(tokens, i)
			continue
		}

		// Qualified reference: keep only the final segment.
		name := tok.literal
		for i+2 < len(tokens) && tokens[i+1].literal == "." && tokens[i+2].kind == tokenIdent {
			name = tokens[i+2].literal
			i += 2
		}
		// alias.* contributes no column name.
		if i+2 < len(tokens) && tokens[i+1].literal == "." && tokens[i+2].literal == "*" {
			i += 2
			continue
		}
		columns[name] = true
	}

	result := make([]string, 0, len(columns))
	for name := range columns {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// ExtractTableRefs returns the set of table names referenced in FROM/JOIN
// position, sorted and lowercased. Dotted references are kept whole
// ("raw.orders"). An error indicates the text could not be tokenized.
func ExtractTableRefs(sqlText string) ([]string, error) {
	tokens, err := scan(sqlText)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]bool)
	for i := 1; i < len(tokens); i++ {
		prev := tokens[i-1]
		tok := tokens[i]
		if tok.kind != tokenIdent || keywords[tok.literal] {
			continue
		}
		if prev.kind != tokenIdent || !tableContext[prev.literal] {
			continue
		}

		name := tok.literal
		for i+2 < len(tokens) && tokens[i+1].literal == "." && tokens[i+2].kind == tokenIdent {
			name = name + "." + tokens[i+2].literal
			i += 2
		}
		tables[name] = true
	}

	result := make([]string, 0, len(tables))
	for name := range tables {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// skipTableRef advances past a table reference (possibly dotted) plus an
// optional bare alias, returning the index of the last consumed token.
func skipTableRef(tokens []sqlToken, i int) int {
	for i+2 < len(tokens) && tokens[i+1].literal == "." && tokens[i+2].kind == tokenIdent {
		i += 2
	}
	// Optional alias: FROM orders o.
	if i+1 < len(tokens) && tokens[i+1].kind == tokenIdent && !keywords[tokens[i+1].literal] {
		i++
	}
	return i
}

// Normalize returns a canonical single-spaced, lowercased form of the SQL
// with comments removed and string literals preserved. Two SQL bodies with
// equal normal forms differ only cosmetically.
func Normalize(sqlText string) (string, error) {
	tokens, err := scan(sqlText)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.kind == tokenString {
			parts = append(parts, "'"+tok.literal+"'")
			continue
		}
		parts = append(parts, tok.literal)
	}
	return strings.Join(parts, " "), nil
}

// CosmeticResult is the tagged outcome of a cosmetic-change classification.
type CosmeticResult int

// Cosmetic classification outcomes.
const (
	// CosmeticUnknown means the texts could not be analyzed; callers must
	// treat the change as structural.
	CosmeticUnknown CosmeticResult = iota
	// CosmeticOnly means the change is whitespace/comment/case only.
	CosmeticOnly
	// Structural means query semantics may have changed.
	Structural
)

// ClassifyChange compares two SQL bodies and reports whether the edit is
// cosmetic. Identical texts classify as cosmetic. Tokenization failure on
// either side yields CosmeticUnknown, never a silent skip.
func ClassifyChange(oldSQL, newSQL string) CosmeticResult {
	if oldSQL == newSQL {
		return CosmeticOnly
	}
	oldNorm, err := Normalize(oldSQL)
	if err != nil {
		return CosmeticUnknown
	}
	newNorm, err := Normalize(newSQL)
	if err != nil {
		return CosmeticUnknown
	}
	if oldNorm == newNorm {
		return CosmeticOnly
	}
	return Structural
}
