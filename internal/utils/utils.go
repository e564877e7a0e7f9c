package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ansiRe     = NewLazyRegex(`\x1b\[[0-9;]*[a-zA-Z]`)
	unsafeName = NewLazyRegex(`[^A-Za-z0-9_-]+`)
)

// Truncate truncates s to max runes, appending "..." if truncated.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// StripANSI removes ANSI escape codes from s.
func StripANSI(s string) string {
	return ansiRe.ReplaceAll(s, "")
}

// SafeName turns s into a string usable as a file name component.
func SafeName(s string) string {
	name := strings.Trim(unsafeName.ReplaceAll(s, "-"), "-")
	if name == "" {
		return "stdin"
	}
	return name
}

// FormatBytes formats a byte count for display: "1.2MB", "59.2KB", "694B".
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// CountLines counts the number of lines in s.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
