package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// NormalizedText is the transient, per-classification view of an email's
// text. Plain keeps the original case for entity extraction; Lower is the
// case-folded copy used for keyword matching.
type NormalizedText struct {
	Plain string
	Lower string
}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips markup from the subject and body and collapses runs of
// whitespace to single spaces. When both a plain and an HTML body exist the
// plain body wins. Empty input yields empty strings, not an error.
func Normalize(subject, body, htmlBody string) NormalizedText {
	if looksLikeHTML(subject) {
		subject = stripHTML(subject)
	}

	text := body
	if strings.TrimSpace(text) == "" && htmlBody != "" {
		text = stripHTML(htmlBody)
	} else if looksLikeHTML(text) {
		text = stripHTML(text)
	}

	plain := strings.TrimSpace(whitespaceRe.ReplaceAllString(subject+" "+text, " "))
	plain = sanitizeUTF8(plain)

	return NormalizedText{
		Plain: plain,
		Lower: strings.ToLower(plain),
	}
}

func looksLikeHTML(text string) bool {
	return strings.Contains(text, "<html") ||
		strings.Contains(text, "<body") ||
		strings.Contains(text, "<div") ||
		strings.Contains(text, "<p>") ||
		strings.Contains(text, "<br")
}

// stripHTML renders markup down to its text content. Falls back to a bare
// tag strip when the document cannot be parsed.
func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return tagRe.ReplaceAllString(html, " ")
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// sanitizeUTF8 drops invalid UTF-8 sequences so every downstream consumer
// sees a valid string.
func sanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}
	return string(result)
}
