package helpers

import (
	"fmt"
	"math"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultSlugLength is the maximum slug length used for output filenames.
const DefaultSlugLength = 50

// slugFallback is substituted when slugification leaves nothing usable.
const slugFallback = "image"

// Slugify converts prompt text into a filesystem-and-URL-safe slug:
// lowercase alphanumerics joined by single hyphens, trimmed, and truncated to
// maxLen at a word boundary. Empty results yield a fixed fallback token.
func Slugify(text string, maxLen int) string {
	str := strings.ToLower(strings.TrimSpace(text))

	var filtered strings.Builder
	for _, ch := range str {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') ||
			ch == ' ' || ch == '\t' || ch == '\n' || ch == '-' || ch == '_' {
			filtered.WriteRune(ch)
		}
	}

	// Collapse runs of whitespace and underscores into single hyphens.
	words := strings.FieldsFunc(filtered.String(), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '_'
	})
	str = strings.Join(words, "-")

	for strings.Contains(str, "--") {
		str = strings.ReplaceAll(str, "--", "-")
	}
	str = strings.Trim(str, "-")

	if maxLen > 0 && len(str) > maxLen {
		cut := str[:maxLen]
		// Never split a word: when the cut lands mid-word, drop the partial
		// word. A word ending exactly at the boundary is kept whole.
		if str[maxLen] != '-' {
			if idx := strings.LastIndex(cut, "-"); idx >= 0 {
				cut = cut[:idx]
			} else {
				cut = ""
			}
		}
		str = strings.Trim(cut, "-")
	}

	if str == "" {
		return slugFallback
	}
	return str
}

// CheckAndMakeDir ensures a directory exists, creating it if necessary.
// Uses standard directory permissions (0700).
func CheckAndMakeDir(dir string) bool {
	// Use MkdirAll to create parent directories if they don't exist
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		log.WithError(err).Errorf("Error creating directory %s", dir)
		return false
	}
	return true
}

// BytesToSize converts a byte count into a human-readable string (KB, MB, GB, etc.).
func BytesToSize(bytes uint64) string {
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes == 0 {
		return "0B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1 // Handle very large sizes
	}
	return fmt.Sprintf("%.2f%s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}

// Truncate shortens a string for display, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
