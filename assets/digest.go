package assets

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to text cut by Clip
const TruncationMarker = "\n[...truncated]"

// DigestLimits bounds the style digest
type DigestLimits struct {
	MaxFiles        int
	MaxCharsPerFile int
	MaxTotalChars   int
}

// BuildStyleDigest compresses the sample pool into one bounded excerpt.
//
// Samples are taken in the given order (lexicographic by name when they come
// from Load), at most MaxFiles of them, each clipped to MaxCharsPerFile. A
// sample whose block would push the digest past MaxTotalChars ends the
// digest; it is never partially appended. Lengths are counted in runes.
func BuildStyleDigest(samples []Document, limits DigestLimits) string {
	var builder strings.Builder
	total := 0

	for i, sample := range samples {
		if i >= limits.MaxFiles {
			break
		}

		body, clipped := Clip(strings.TrimSpace(sample.Content), limits.MaxCharsPerFile)
		if clipped {
			body += TruncationMarker
		}

		block := fmt.Sprintf("### Sample %d: %s\n%s\n\n", i+1, sample.Name, body)
		n := utf8.RuneCountInString(block)
		if total+n > limits.MaxTotalChars {
			break
		}
		builder.WriteString(block)
		total += n
	}

	return strings.TrimRight(builder.String(), "\n")
}

// Clip cuts s to at most max runes and reports whether it was cut
func Clip(s string, max int) (string, bool) {
	if max <= 0 {
		return "", s != ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// ClipWithMarker clips s and appends TruncationMarker when it was cut
func ClipWithMarker(s string, max int) string {
	clipped, cut := Clip(s, max)
	if cut {
		return clipped + TruncationMarker
	}
	return clipped
}
