package caption

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"filesort/internal/buckets"
	"filesort/internal/textutil"
)

var labelCaser = cases.Lower(language.Und)

// NormalizeLabel reduces raw model output to a single lowercase folder name.
// It reports false when nothing usable remains.
func NormalizeLabel(raw string) (string, bool) {
	word := textutil.FirstWord(raw)
	if word == "" {
		return "", false
	}
	label := textutil.SanitizeToken(labelCaser.String(word))
	if label == "" {
		return "", false
	}
	if strings.EqualFold(label, buckets.OthersFolder) {
		return buckets.OthersFolder, true
	}
	return label, true
}
