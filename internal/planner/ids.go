package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identifiers are content-derived so that identical inputs yield identical
// plans across runs and processes, and plan IDs are safe idempotency keys.
// SHA-256 keeps them collision-resistant.

// StepID derives the stable identifier for one plan step.
func StepID(model, base, target string) string {
	h := sha256.Sum256([]byte(model + ":" + base + ":" + target))
	return hex.EncodeToString(h[:])
}

// PlanID derives the plan identifier from the snapshot refs and the ordered
// step IDs. The step list is already deterministic, so hashing it in list
// order is stable.
func PlanID(base, target string, stepIDs []string) string {
	h := sha256.New()
	h.Write([]byte(base))
	h.Write([]byte(":"))
	h.Write([]byte(target))
	h.Write([]byte(":"))
	h.Write([]byte(strings.Join(stepIDs, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
