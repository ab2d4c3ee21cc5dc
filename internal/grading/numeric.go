package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Plain decimals only: no exponents, hex or fractions. "1/2" stays a
// string and never equals "0.5".
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// groupedPattern is a decimal with thousands commas ("12,500", "1,000.5").
var groupedPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// defaultEpsilon absorbs float formatting noise ("0.1" vs "0.10000").
const defaultEpsilon = 1e-9

func parseDecimal(s string) (float64, bool) {
	if groupedPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// numericEqual compares two normalized values numerically. ok is false
// when either side is not a plain decimal, in which case callers fall
// back to string equality.
func numericEqual(expected, submitted string, tol float64) (equal, ok bool) {
	ev, eok := parseDecimal(expected)
	sv, sok := parseDecimal(submitted)
	if !eok || !sok {
		return false, false
	}
	if tol < defaultEpsilon {
		tol = defaultEpsilon
	}
	return math.Abs(ev-sv) <= tol, true
}
