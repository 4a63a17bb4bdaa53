package textcase

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits an identifier into words on separators, lower-to-upper
// transitions and the end of an upper-case run ("HTTPServer" -> HTTP, Server).
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return words
}

// Snake returns the snake_case form of s ("createdAt" -> "created_at").
func Snake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// Camel returns the camelCase form of s ("users_controller.index" -> "usersControllerIndex").
func Camel(s string) string {
	title := cases.Title(language.Und)
	words := Words(s)
	for i, w := range words {
		if i == 0 {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = title.String(strings.ToLower(w))
	}
	return strings.Join(words, "")
}

// Start returns the space separated, title-cased form of s
// ("orderStatus" -> "Order Status"). Upper-case runs are kept.
func Start(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	words := Words(s)
	for i, w := range words {
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}
