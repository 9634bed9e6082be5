package speech

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bareURLRe    = regexp.MustCompile(`https?://\S+`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*(?:[-*+•]|\d+[.)])\s+`)
)

// markupNoise are characters the tutor uses for emphasis that a voice
// should not pronounce.
var markupNoise = strings.NewReplacer(
	"**", " ",
	"__", " ",
	"*", " ",
	"~", " ",
	"|", " ",
	"#", " ",
	"<", " ",
	">", " ",
	"\\", " ",
)

// SpeakableText flattens a tutor reply into plain prose for synthesis.
// Code blocks are dropped, inline code keeps its content, links keep their
// label and emoji go away. Returns "" when nothing pronounceable is left.
func SpeakableText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = fencedCodeRe.ReplaceAllString(raw, " ")
	raw = inlineCodeRe.ReplaceAllString(raw, "$1")
	raw = mdLinkRe.ReplaceAllString(raw, "$1")
	raw = bareURLRe.ReplaceAllString(raw, " ")
	raw = headingRe.ReplaceAllString(raw, "")
	raw = bulletRe.ReplaceAllString(raw, "")
	raw = markupNoise.Replace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false
	for _, r := range raw {
		switch {
		case r == '\u200d' || r == '\ufe0f' || r == '\u20e3':
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r), unicode.In(r, unicode.So, unicode.Sk):
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	out := b.String()
	for _, p := range []string{" .", " ,", " !", " ?", " :", " ;"} {
		out = strings.ReplaceAll(out, p, p[1:])
	}
	if !strings.ContainsFunc(out, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return ""
	}
	return out
}
