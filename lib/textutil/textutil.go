package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

var numberRegex = regexp.MustCompile(`[0-9][0-9,.]*[kKmM]?`)

// ExtractInt pulls the first integer-looking token out of a string like
// "Problems Solved: 1,234" or "3.2k followers". Returns 0 when there is
// no numeric signal at all.
func ExtractInt(s string) int {
	token := numberRegex.FindString(s)
	if token == "" {
		return 0
	}

	multiplier := 1.0
	switch token[len(token)-1] {
	case 'k', 'K':
		multiplier = 1000
		token = token[:len(token)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		token = token[:len(token)-1]
	}

	token = strings.ReplaceAll(token, ",", "")
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}
