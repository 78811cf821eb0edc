package util

import (
	"strconv"
	"strings"
)

// ClampedInt parses s and clamps it to [lo, hi]. Empty or invalid input
// yields def.
func ClampedInt(s string, def, lo, hi int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return min(max(i, lo), hi)
}
