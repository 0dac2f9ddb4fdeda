package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

func Contains(slice []string, value string) bool {
	return slices.Contains(slice, value)
}

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// SplitCSV takes a comma-separated string and returns the trimmed,
// de-duplicated non-empty parts in order.
func SplitCSV(input string) []string {
	if input == "" {
		return []string{}
	}
	parts := strings.Split(input, ",")
	var out []string
	seen := make(map[string]bool)

	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" || seen[v] {
			continue
		}
		out = append(out, v)
		seen[v] = true
	}
	return out
}

var unsafeFilename = regexp.MustCompile(`[^\w.\-]`)

func SanitizeFilename(name string) string {
	clean := unsafeFilename.ReplaceAllString(filepath.Base(name), "_")
	if clean == "" {
		return "file"
	}
	return clean
}
