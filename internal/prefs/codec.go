package prefs

import (
	"math"
	"strconv"
	"strings"
)

// Text forms of typed values. Floats use the same shape as the JVM's
// Double.toString (1.0, 2.5E-5, 1.0E10, NaN, Infinity) so stores written by
// either side parse on the other.

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatBool(v bool) string { return strconv.FormatBool(v) }

func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'E', -1, bitSize)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}

// parseInt keeps int entries in the 32-bit range so wider values read as
// undecodable.
func parseInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int(n), err
}

func parseLong(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	return float32(v), err
}

func parseDouble(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseBool never fails: only a case-insensitive "true" is true.
func parseBool(s string) (bool, error) { return strings.EqualFold(s, "true"), nil }

func parseString(s string) (string, error) { return s, nil }
