package marker

import (
	"slices"
	"strings"
)

// Dictionaries names the predefined ArUco dictionaries a detector can use.
var Dictionaries = []string{
	"4x4_50", "4x4_100", "4x4_250", "4x4_1000",
	"5x5_50", "5x5_100", "5x5_250", "5x5_1000",
	"6x6_50", "6x6_100", "6x6_250", "6x6_1000",
	"7x7_50", "7x7_100", "7x7_250", "7x7_1000",
	"original",
}

// NormalizeDictionary lowercases and trims a dictionary name.
func NormalizeDictionary(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidDictionary reports whether name is one of Dictionaries.
func ValidDictionary(name string) bool {
	return slices.Contains(Dictionaries, NormalizeDictionary(name))
}
