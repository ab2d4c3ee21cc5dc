package grading

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// AlternativeSeparator joins acceptable alternatives inside one expected
// answer ("7|seven"). It must differ from every list separator.
const AlternativeSeparator = "|"

// listSeparator matches one boundary of a multi-part answer: a run of
// commas, semicolons, ampersands or the word "and" ("A, B, and C").
var listSeparator = regexp.MustCompile(`\s*(?:(?:,|;|&|\band\b)\s*)+`)

// numberRun finds candidate digit groups so thousands commas ("12,500")
// are not read as list separators.
var numberRun = regexp.MustCompile(`[0-9.,]+`)

// groupMark stands in for a thousands comma while splitting.
const groupMark = "\uE000"

// Normalize trims, collapses whitespace runs to one space and case-folds.
// It never removes words or punctuation.
func Normalize(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// Match reports whether submitted is an acceptable answer for expected.
func Match(expected, submitted string) bool {
	return MatchWithTolerance(expected, submitted, 0)
}

// MatchWithTolerance is Match with an absolute numeric tolerance applied
// wherever both sides are plain decimals.
func MatchWithTolerance(expected, submitted string, tol float64) bool {
	sub := Normalize(submitted)
	exp := Normalize(expected)
	if sub == "" || exp == "" {
		return false
	}
	if sub == exp {
		return true
	}
	for _, alt := range strings.Split(exp, AlternativeSeparator) {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if matchAlternative(alt, sub, tol) {
			return true
		}
	}
	return false
}

// IsMultiPart reports whether an expected answer is an ordered list.
func IsMultiPart(expected string) bool {
	return len(dropEmpty(splitParts(Normalize(expected)))) > 1
}

func matchAlternative(exp, sub string, tol float64) bool {
	expParts := dropEmpty(splitParts(exp))
	if len(expParts) <= 1 {
		return scalarEqual(exp, sub, tol)
	}
	// a submission may not open or close with a separator
	subParts := splitParts(sub)
	if len(subParts) != len(expParts) {
		return false
	}
	for i := range expParts {
		if !scalarEqual(expParts[i], subParts[i], tol) {
			return false
		}
	}
	return true
}

func scalarEqual(exp, sub string, tol float64) bool {
	if eq, ok := numericEqual(exp, sub, tol); ok {
		return eq
	}
	return exp == sub
}

// splitParts splits a normalized answer on list separators. A leading or
// trailing separator yields an empty first or last part.
func splitParts(s string) []string {
	parts := listSeparator.Split(protectGrouping(s), -1)
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(p), groupMark, ",")
	}
	return parts
}

func dropEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// protectGrouping hides the commas of grouped numbers from the splitter.
// "1,000" stays one part while "1,2,3" is still a list.
func protectGrouping(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return numberRun.ReplaceAllStringFunc(s, func(run string) string {
		core := strings.TrimRight(run, ",.")
		if !groupedPattern.MatchString(core) {
			return run
		}
		return strings.ReplaceAll(core, ",", groupMark) + run[len(core):]
	})
}
