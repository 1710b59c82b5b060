// utils/tailnum.go
package utils

import "strings"

// placeholderTails are the values the source files use when the airframe is unknown.
var placeholderTails = map[string]struct{}{
	"":        {},
	"NA":      {},
	"N/A":     {},
	"0":       {},
	"000000":  {},
	"NONE":    {},
	"UNKNOW":  {},
	"UNKNOWN": {},
}

// NormalizeTailNumber upper-cases and trims a tail number. Placeholders become "".
func NormalizeTailNumber(tail string) string {
	upper := strings.ToUpper(strings.TrimSpace(tail))
	if _, ok := placeholderTails[upper]; ok {
		return ""
	}
	return upper
}
