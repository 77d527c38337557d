package dataset

import "strings"

// NormalizeName trims surrounding whitespace, then removes interior spaces and
// every "/" from a column identifier.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "/", "")
}
