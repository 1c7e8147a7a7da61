package common

import (
	"math"
	"strconv"
	"strings"
)

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseDecimal parses provider numbers such as "1,234.56".
// Blank input yields 0 so one missing field does not discard a whole record.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
