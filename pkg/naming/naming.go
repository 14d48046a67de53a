// Package naming derives operation identifiers from folder and request names.
package naming

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// disallowed matches anything that is not a letter, digit, underscore or whitespace.
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9_\s]`)
	// leadingNonLetters matches the run of non-letters an identifier may not start with.
	leadingNonLetters = regexp.MustCompile(`^[^a-zA-Z]+`)
	// separators matches underscore/whitespace runs, capturing the character that follows.
	separators = regexp.MustCompile(`[_\s]+(.)?`)
)

// Resolve folds an ordered chain of names (folder path followed by the
// request name) into a camel-case identifier, e.g. ("User", "Get User")
// becomes "userGetUser".
//
// Input with no letters yields "". Distinct chains may fold to the same
// identifier; callers decide how to handle collisions.
func Resolve(chain ...string) string {
	s := strings.Join(chain, " ")
	s = disallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = leadingNonLetters.ReplaceAllString(s, "")
	s = strings.ToLower(s)

	return separators.ReplaceAllStringFunc(s, func(match string) string {
		sub := separators.FindStringSubmatch(match)
		if sub[1] == "" {
			return ""
		}
		return strings.ToUpper(sub[1])
	})
}

// Split breaks a camel-case identifier into its words at lower-to-upper case
// boundaries: "userGetUser" becomes ["user", "Get", "User"].
func Split(id string) []string {
	var (
		words []string
		start int
	)
	runes := []rune(id)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
