package utils

import (
	"strings"
)

// RemoveControlCharacters 移除控制字符，保留换行符和制表符
func RemoveControlCharacters(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, text)
}

// StripQuotes removes any run of surrounding double quotes. Models sometimes
// return the tagline as "\"Hello\"".
func StripQuotes(text string) string {
	return strings.Trim(strings.TrimSpace(text), `"`)
}

// DisplayQuote strips existing quotes and wraps the text in exactly one pair.
func DisplayQuote(text string) string {
	stripped := StripQuotes(text)
	if stripped == "" {
		return ""
	}
	return `"` + stripped + `"`
}
