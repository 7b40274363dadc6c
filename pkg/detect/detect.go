// Package detect scores raw log text against per-ecosystem pattern tables
// and reports which ecosystem produced it.
package detect

import (
	"regexp"
	"strings"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// MinScore is the minimum confidence an ecosystem needs to be reported.
const MinScore = 5

// maxHitsPerPattern caps a single pattern's contribution at this many times its weight.
const maxHitsPerPattern = 3

// Pattern is one weighted signal in a scoring table.
type Pattern struct {
	Re     *regexp.Regexp
	Weight int
}

func weighted(expr string, weight int) Pattern {
	return Pattern{Re: regexp.MustCompile(`(?im)` + expr), Weight: weight}
}

// Scoring tables. Matching is case-insensitive and multi-line.
var (
	javaPatterns = []Pattern{
		// at com.example.Class.method(File.java:123)
		weighted(`at\s+[\w.$]+\.\w+\([^)]+\.java:\d+\)`, 10),
		// java.lang.NullPointerException
		weighted(`java\.\w+\.\w+(?:Exception|Error)`, 8),
		weighted(`(?:NullPointerException|ClassNotFoundException|SQLException|IOException)`, 5),
		// package prefixes
		weighted(`(?:com|org|net|io)\.\w+\.\w+`, 3),
		weighted(`Caused by:\s*[\w.$]+(?:Exception|Error)`, 5),
		// Exception in thread "main"
		weighted(`Exception in thread "[^"]+"`, 7),
	}

	pythonPatterns = []Pattern{
		weighted(`Traceback \(most recent call last\):`, 10),
		// File "path.py", line 123, in function
		weighted(`File "[^"]+\.py", line \d+, in`, 10),
		weighted(`(?:KeyError|ValueError|TypeError|AttributeError|ImportError|IndexError):`, 7),
		// dunder names and attribute access on self
		weighted(`(?:__\w+__|self\.\w+)`, 3),
		// indented source lines under frames
		weighted(`^\s{4,}\w+`, 2),
	}
)

// Score holds the per-ecosystem confidence totals for one input.
type Score struct {
	Java   int `json:"java"`
	Python int `json:"python"`
}

// Scores computes the confidence totals without deciding.
func Scores(text string) Score {
	if strings.TrimSpace(text) == "" {
		return Score{}
	}
	return Score{
		Java:   score(text, javaPatterns),
		Python: score(text, pythonPatterns),
	}
}

// Detect returns the best-supported ecosystem for text, or EcosystemUnknown.
// Ties at or above MinScore resolve to Java.
func Detect(text string) core.Ecosystem {
	return Scores(text).Ecosystem()
}

// Ecosystem applies the decision rule to the totals.
func (s Score) Ecosystem() core.Ecosystem {
	switch {
	case s.Java >= MinScore && s.Java > s.Python:
		return core.EcosystemJava
	case s.Python >= MinScore && s.Python > s.Java:
		return core.EcosystemPython
	case s.Java >= MinScore:
		return core.EcosystemJava
	case s.Python >= MinScore:
		return core.EcosystemPython
	default:
		return core.EcosystemUnknown
	}
}

func score(text string, patterns []Pattern) int {
	total := 0
	for _, p := range patterns {
		hits := len(p.Re.FindAllStringIndex(text, maxHitsPerPattern))
		total += hits * p.Weight
	}
	return total
}
