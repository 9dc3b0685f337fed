package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	cssBlockPattern     = regexp.MustCompile(`\{[^{}]*\}`)
	nonPrintablePattern = regexp.MustCompile(`[^\x20-\x7E\n]`)
	blankLinesPattern   = regexp.MustCompile(`\n{2,}`)
)

// CleanBody turns a raw message body into plain text suitable for the
// extraction service: markup, scripts and styles stripped, characters
// normalized to printable ASCII, blank lines collapsed.
func CleanBody(body string) string {
	text := body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("script,style").Remove()
		text = doc.Text()
	}

	// Leftover CSS rule blocks. Strip innermost-first so nested
	// blocks unwind without recursive matching.
	for {
		stripped := cssBlockPattern.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = nonPrintablePattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = blankLinesPattern.ReplaceAllString(text, "\n")
	return text
}
