/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package doodle

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Matcher decides whether a chat message guesses a word. It tolerates typos
// in long variants, but short variants must be typed exactly.
type Matcher struct {
	// Alphabet reports whether a lower-case rune is kept in a guess. Digits
	// and whitespace are always kept.
	Alphabet func(r rune) bool
}

// LatinCyrillic accepts a-z, а-я and ё.
func LatinCyrillic(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я') || r == 'ё'
}

func NewMatcher() Matcher {
	return Matcher{Alphabet: LatinCyrillic}
}

func lower(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

func normalizeVariant(s string) string {
	return strings.TrimSpace(lower(s))
}

// Tokens lower-cases the message, blanks every rune outside the alphabet,
// digits and whitespace, and splits what remains on whitespace.
func (m Matcher) Tokens(message string) []string {
	alphabet := m.Alphabet
	if alphabet == nil {
		alphabet = LatinCyrillic
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r >= '0' && r <= '9':
			return r
		case alphabet(r):
			return r
		}
		return ' '
	}, lower(message))

	return strings.Fields(cleaned)
}

// IsCorrect reports whether any token of message matches any variant.
func (m Matcher) IsCorrect(message string, variants []string) bool {
	if message == "" || len(variants) == 0 {
		return false
	}

	for _, token := range m.Tokens(message) {
		for _, variant := range variants {
			if variant == "" {
				continue
			}
			if token == variant {
				return true
			}
			if closeEnough(token, variant) {
				return true
			}
		}
	}

	return false
}

func closeEnough(token, variant string) bool {
	vl := utf8.RuneCountInString(variant)
	if vl <= 3 {
		return false
	}

	diff := vl - utf8.RuneCountInString(token)
	if diff < -2 || diff > 2 {
		return false
	}

	maxErrors := 1
	if vl > 5 {
		maxErrors = 2
	}

	return levenshtein.ComputeDistance(token, variant) <= maxErrors
}
