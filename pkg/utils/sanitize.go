package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText убирает любую разметку из пользовательского текста (причины, описания).
func SanitizeText(s string) string {
	cleaned := strictPolicy.Sanitize(strings.TrimSpace(s))
	return html.UnescapeString(cleaned)
}

