package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Ecosystem
// =============================================================================

// Ecosystem identifies the runtime whose conventions a piece of log text follows.
// The string values are wire tokens and must not change.
type Ecosystem string

// Known ecosystems.
const (
	EcosystemJava    Ecosystem = "java"
	EcosystemPython  Ecosystem = "python"
	EcosystemUnknown Ecosystem = "unknown"
)

// String returns the wire token.
func (e Ecosystem) String() string {
	if e == "" {
		return string(EcosystemUnknown)
	}
	return string(e)
}

// IsKnown reports whether e names a concrete ecosystem.
func (e Ecosystem) IsKnown() bool {
	return e == EcosystemJava || e == EcosystemPython
}

// ParseEcosystem converts a user-supplied token to an Ecosystem.
// Matching is case-insensitive. Returns EcosystemUnknown and false for anything else.
func ParseEcosystem(s string) (Ecosystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return EcosystemJava, true
	case "python":
		return EcosystemPython, true
	case "unknown":
		return EcosystemUnknown, true
	default:
		return EcosystemUnknown, false
	}
}

// UnmarshalText decodes a wire token, rejecting unrecognised values.
func (e *Ecosystem) UnmarshalText(text []byte) error {
	v, ok := ParseEcosystem(string(text))
	if !ok {
		return fmt.Errorf("invalid ecosystem %q", string(text))
	}
	*e = v
	return nil
}
