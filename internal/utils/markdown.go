// Package utils holds text helpers shared by the script service and CLI.
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// reImageMD matches markdown images: ![alt](url)
	reImageMD = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	// reImageHTML matches HTML image tags: <img ...>
	reImageHTML = regexp.MustCompile(`(?is)<img[^>]*>`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	// reDataURI matches inline base64 payloads pasted with the source.
	reDataURI = regexp.MustCompile(`data:[a-zA-Z0-9.+/-]+;base64,[A-Za-z0-9+/=]+`)
	// reTrailingSpace matches whitespace before a line break.
	reTrailingSpace     = regexp.MustCompile(`[ \t]+\n`)
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// CleanSource strips content the script writer cannot use: images, HTML
// comments, inline base64 payloads and control characters. Paragraph
// breaks are kept, runs of blank lines are collapsed.
func CleanSource(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reImageMD.ReplaceAllString(text, "")
	text = reImageHTML.ReplaceAllString(text, "")
	text = reComment.ReplaceAllString(text, "")
	text = reDataURI.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	text = reTrailingSpace.ReplaceAllString(text, "\n")
	text = reExcessiveNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
