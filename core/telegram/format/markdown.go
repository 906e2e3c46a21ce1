package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!\\\\])")
	// Inside pre and code entities only ` and \ are escaped.
	mdV2CodeRe = regexp.MustCompile("([`\\\\])")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// entityType "pre" or "code" selects the reduced V2 escape set.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\${1}`), nil
	case MarkdownV2:
		switch strings.ToLower(entityType) {
		case "pre", "code":
			return mdV2CodeRe.ReplaceAllString(text, `\${1}`), nil
		}
		return mdV2Re.ReplaceAllString(text, `\${1}`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MustEscape is EscapeMarkdown for callers with a fixed, known version.
func MustEscape(text string, version int) string {
	out, err := EscapeMarkdown(text, version, "")
	if err != nil {
		panic(err)
	}
	return out
}
