package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxTitleLen caps sequence titles; importers choke on very long names.
const MaxTitleLen = 120

// SanitizeTitle cleans a sequence/clip title so it is safe both as XML
// content and as part of an output filename. Control characters are
// dropped, everything else outside a conservative allow-list becomes an
// underscore. An empty result falls back to "sequence".
func SanitizeTitle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if allowedTitleRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if runes := []rune(cleaned); len(runes) > MaxTitleLen {
		cleaned = string(runes[:MaxTitleLen])
	}
	if cleaned == "" {
		return "sequence"
	}
	return cleaned
}

func allowedTitleRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.':
		return true
	default:
		return false
	}
}

// ValidateOutputDir rejects output directories that do not exist or
// smuggle path traversal.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output dir is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output dir cannot contain path traversal")
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output dir does not exist: %s", dir)
		}
		return fmt.Errorf("invalid output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output dir is not a directory: %s", dir)
	}

	return nil
}
