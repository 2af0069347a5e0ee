package impact

import "strings"

// typePair keys the compatibility matrix.
type typePair struct {
	oldType string
	newType string
}

// compatMatrix is the explicit allow-list of safe type widenings. The
// matrix is directional: INT -> BIGINT is safe, BIGINT -> INT is not. Any
// pair absent from the matrix is treated as incompatible.
var compatMatrix = map[typePair]bool{
	// Integer widening.
	{"TINYINT", "SMALLINT"}: true,
	{"TINYINT", "INT"}:      true,
	{"TINYINT", "BIGINT"}:   true,
	{"SMALLINT", "INT"}:     true,
	{"SMALLINT", "BIGINT"}:  true,
	{"INT", "BIGINT"}:       true,
	{"INT", "DOUBLE"}:       true,
	{"BIGINT", "DOUBLE"}:    true,
	{"FLOAT", "DOUBLE"}:     true,
	{"INT", "DECIMAL"}:      true,
	{"BIGINT", "DECIMAL"}:   true,

	// String widening.
	{"VARCHAR", "STRING"}: true,
	{"CHAR", "STRING"}:    true,
	{"CHAR", "VARCHAR"}:   true,

	// Temporal widening.
	{"DATE", "TIMESTAMP"}: true,
}

// IsCompatible reports whether changing a column from oldType to newType is
// safe for downstream contracts. Type tokens are case-normalized before
// lookup; identity is always safe.
func IsCompatible(oldType, newType string) bool {
	o := normalizeType(oldType)
	n := normalizeType(newType)
	if o == n {
		return true
	}
	return compatMatrix[typePair{oldType: o, newType: n}]
}

// normalizeType upper-cases a type token and strips any length/precision
// suffix, so VARCHAR(64) and varchar compare equal.
func normalizeType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "INTEGER":
		return "INT"
	case "TEXT":
		return "STRING"
	}
	return t
}
