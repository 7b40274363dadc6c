// Package extract turns raw log text into structured error records.
//
// Each supported ecosystem has an Extractor: a line-oriented state machine
// that locates exception headers and their call stacks. Parse runs ecosystem
// detection first and dispatches to the matching extractor; ParseAs skips
// detection. Extractors never fail on malformed input, they skip what they
// cannot recognise.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mydoor3520/log-detective/pkg/core"
	"github.com/mydoor3520/log-detective/pkg/detect"
)

// Extractor finds error records for a single ecosystem.
type Extractor interface {
	// Ecosystem returns the tag stamped on every record this extractor emits.
	Ecosystem() core.Ecosystem
	// CanHandle is a quick check for ecosystem-specific syntax.
	CanHandle(text string) bool
	// Extract returns the records found in text, in input order.
	Extract(text string) []core.ErrorRecord
}

// extractors is the closed dispatch table. It is never mutated.
var extractors = map[core.Ecosystem]Extractor{
	core.EcosystemJava:   JavaExtractor{},
	core.EcosystemPython: PythonExtractor{},
}

// ForEcosystem returns the extractor registered for eco.
func ForEcosystem(eco core.Ecosystem) (Extractor, bool) {
	e, ok := extractors[eco]
	return e, ok
}

// Ecosystems returns all ecosystems with a registered extractor (sorted).
func Ecosystems() []core.Ecosystem {
	names := make([]core.Ecosystem, 0, len(extractors))
	for eco := range extractors {
		names = append(names, eco)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Parse detects the ecosystem of text and extracts its records.
// Undetectable input yields EcosystemUnknown and an empty slice.
func Parse(text string) (core.Ecosystem, []core.ErrorRecord) {
	eco := detect.Detect(text)
	e, ok := ForEcosystem(eco)
	if !ok {
		return core.EcosystemUnknown, []core.ErrorRecord{}
	}
	return eco, e.Extract(text)
}

// ParseAs extracts records with the extractor for eco, skipping detection.
// It returns *UnsupportedEcosystemError when no extractor is registered.
func ParseAs(text string, eco core.Ecosystem) ([]core.ErrorRecord, error) {
	e, ok := ForEcosystem(eco)
	if !ok {
		return nil, &UnsupportedEcosystemError{
			Ecosystem: eco,
			Available: Ecosystems(),
		}
	}
	return e.Extract(text), nil
}

// UnsupportedEcosystemError is returned when extraction is requested for an
// ecosystem with no registered extractor.
type UnsupportedEcosystemError struct {
	Ecosystem core.Ecosystem
	Available []core.Ecosystem
}

func (e *UnsupportedEcosystemError) Error() string {
	names := make([]string, len(e.Available))
	for i, eco := range e.Available {
		names[i] = eco.String()
	}
	return fmt.Sprintf("no extractor for ecosystem %q (available: %s)", e.Ecosystem, strings.Join(names, ", "))
}

// splitLines splits trimmed text into lines, dropping CR from CRLF endings.
func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Document is the serialised result of parsing one input.
type Document struct {
	// Source names the input (a file path); empty for inline text and stdin.
	Source     string             `json:"source,omitempty"`
	Language   core.Ecosystem     `json:"language"`
	ErrorCount int                `json:"error_count"`
	Errors     []core.ErrorRecord `json:"errors"`
}

// NewDocument wraps records parsed as eco.
func NewDocument(source string, eco core.Ecosystem, records []core.ErrorRecord) Document {
	if records == nil {
		records = []core.ErrorRecord{}
	}
	return Document{
		Source:     source,
		Language:   eco,
		ErrorCount: len(records),
		Errors:     records,
	}
}
