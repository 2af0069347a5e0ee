// Package core defines the shared data model for Tidemark: model
// definitions, diff results, watermarks, plans, and contract violations.
//
// The Golden Rule: pkg/core imports ONLY the standard library. It carries
// domain data without behavior beyond small accessors, so that every other
// package (planner, impact, state, cli) can depend on it without cycles.
package core
