package core

// Severity grades the impact of a violation or a simulated change.
type Severity string

// Severity constants, ordered from worst to mildest.
const (
	SeverityBreaking Severity = "BREAKING"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// severityRank maps severities to a comparable order (lower is worse).
func severityRank(s Severity) int {
	switch s {
	case SeverityBreaking:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// WorseSeverity returns the worse of two severities.
func WorseSeverity(a, b Severity) Severity {
	if severityRank(a) <= severityRank(b) {
		return a
	}
	return b
}

// Violation code constants.
const (
	ViolationColumnRemoved = "COLUMN_REMOVED"
	ViolationColumnRenamed = "COLUMN_RENAMED"
	ViolationTypeChanged   = "TYPE_CHANGED"
)

// ContractViolation is one detected breach of a model's column contract.
// It is a plain value, safe to serialize into plans and reports.
type ContractViolation struct {
	Model    string   `json:"model"`
	Column   string   `json:"column"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
