// Package core defines the shared language of log-detective.
//
// This package contains:
//   - Record types (ErrorRecord, StackFrame)
//   - Tags with pinned wire tokens (Ecosystem, Severity)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// The detector, the extractors and every outer surface depend on core, not the reverse.
package core
