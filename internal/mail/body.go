// Package mail fetches recent emails from the configured mail source and
// reduces them to plain text for classification.
package mail

import (
	"strings"

	"golang.org/x/net/html"
)

// stubPhrases mark a plain-text body that is just a pointer at the HTML
// version. When one appears in a short text body, the stripped HTML body
// carries the real content.
var stubPhrases = []string{
	"enable html",
	"view this email",
	"html version",
	"html-enabled",
}

// stubBodyMaxLen bounds how long a text body can be and still count as a
// stub. Long bodies that happen to mention HTML are real content.
const stubBodyMaxLen = 2000

// StripHTML removes tags from an HTML document and returns the visible
// text, whitespace-normalized. Script and style content is dropped.
func StripHTML(raw string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var parts []string
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text != "" {
				parts = append(parts, strings.Join(strings.Fields(text), " "))
			}
		}
	}
}

// SelectBody picks the best plain-text body for an email. A real text body
// wins; a stub text body defers to the stripped HTML body; the preview
// snippet is the last resort.
func SelectBody(textBody, htmlBody, preview string) string {
	if textBody != "" && !isStub(textBody) {
		return textBody
	}
	if htmlBody != "" {
		return htmlBody
	}
	if textBody != "" {
		return textBody
	}
	return preview
}

func isStub(textBody string) bool {
	if len(textBody) >= stubBodyMaxLen {
		return false
	}
	lower := strings.ToLower(textBody)
	for _, phrase := range stubPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
