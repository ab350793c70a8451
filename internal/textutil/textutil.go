// Package textutil normalizes note markup into plain text for
// retrieval scoring, previews, and title derivation.
package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	titleMaxLength   = 100
	previewMaxLength = 150
)

// StripHTML removes markup from s and returns the concatenated text
// content. The input is tokenized as inert markup; script and style
// bodies are dropped entirely.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Truncate cuts s to at most maxLength runes. Longer text is trimmed of
// trailing whitespace at the cut point and given an ellipsis marker.
func Truncate(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return strings.TrimRight(string(r[:maxLength]), " \t\n\r") + "..."
}

// ExtractTitle derives a title from markup: the first heading's text if
// one exists, otherwise the first non-empty line of the stripped text
// truncated to 100 characters, otherwise "Untitled".
func ExtractTitle(markup string) string {
	if markup == "" {
		return "Untitled"
	}
	if h := firstHeading(markup); h != "" {
		return h
	}
	plain := strings.TrimSpace(StripHTML(markup))
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return Truncate(line, titleMaxLength)
		}
	}
	return "Untitled"
}

func firstHeading(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	depth := 0
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if isHeading(z) {
				depth++
			}
		case html.EndTagToken:
			if isHeading(z) && depth > 0 {
				if t := strings.TrimSpace(b.String()); t != "" {
					return t
				}
				depth = 0
				b.Reset()
			}
		case html.TextToken:
			if depth > 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHeading(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	if len(name) != 2 || name[0] != 'h' {
		return false
	}
	return name[1] >= '1' && name[1] <= '6'
}

// Preview returns the stripped and truncated plain text of markup.
// maxLength <= 0 selects the default of 150. Empty content yields the
// "No content" sentinel.
func Preview(markup string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = previewMaxLength
	}
	plain := strings.TrimSpace(StripHTML(markup))
	if plain == "" {
		return "No content"
	}
	return Truncate(plain, maxLength)
}
