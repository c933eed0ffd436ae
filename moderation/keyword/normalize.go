package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonKeyChars = regexp.MustCompile(`[^\pL\pN]+`)

// ContentKey reduces free-form message text to the key used for grouping
// near-duplicate messages: lower-cased, diacritics folded, and everything
// that is not a letter or digit (whitespace, emoji, punctuation, custom-emoji
// tokens' decoration) removed.
//
// Two messages with equal keys are treated as the same content for spam
// grouping; this is deliberately structural equality, not similarity.
func ContentKey(text string) string {
	// the transform chain is rebuilt per call; norm transformers carry state
	// and are not safe for concurrent reuse
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonKeyChars.ReplaceAllString(text, ""))
	folded, _, err := transform.String(fold, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		return bare
	}
	return folded
}
