package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Query length bounds, counted in characters before trimming.
const (
	MinLength = 1
	MaxLength = 20
)

// Longest query still treated as a ticker symbol.
const maxTickerLength = 5

// Kind is the classification assigned to a query.
type Kind string

const (
	KindTicker  Kind = "ticker"
	KindCompany Kind = "company"
)

// Result is the classification of a free-text query.
type Result struct {
	Query       string   `json:"query"`
	Normalized  string   `json:"normalized"`
	Type        Kind     `json:"type"`
	Suggestions []string `json:"suggestions"`
}

// ValidationError reports a request field that failed its constraints.
type ValidationError struct {
	Field string
	Kind  string // machine-readable: "string_too_short" | "string_too_long" | "missing"
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Missing returns the error for a required field that was not supplied.
func Missing(field string) *ValidationError {
	return &ValidationError{Field: field, Kind: "missing", Msg: "Field required"}
}

// Validate checks that q respects the query length bounds.
func Validate(q string) error {
	n := utf8.RuneCountInString(q)
	switch {
	case n < MinLength:
		return &ValidationError{
			Field: "q",
			Kind:  "string_too_short",
			Msg:   fmt.Sprintf("String should have at least %d character", MinLength),
		}
	case n > MaxLength:
		return &ValidationError{
			Field: "q",
			Kind:  "string_too_long",
			Msg:   fmt.Sprintf("String should have at most %d characters", MaxLength),
		}
	}
	return nil
}

// Classify normalizes q and decides whether it names a ticker or a company.
//
// A trimmed query made only of letters, 1–5 long, is a ticker: it is
// upper-cased and suggested back as-is. Anything else is a company name,
// title-cased, with no suggestions.
func Classify(q string) (Result, error) {
	if err := Validate(q); err != nil {
		return Result{}, err
	}

	raw := strings.TrimSpace(q)
	norm := Upper(raw)

	if isTicker(norm) {
		return Result{
			Query:       raw,
			Normalized:  norm,
			Type:        KindTicker,
			Suggestions: []string{norm},
		}, nil
	}

	return Result{
		Query:       raw,
		Normalized:  TitleCase(raw),
		Type:        KindCompany,
		Suggestions: []string{},
	}, nil
}

// Upper applies full Unicode upper-casing, so one rune may expand to several
// ("ß" becomes "SS").
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func isTicker(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 1 || n > maxTickerLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest of the run. Non-letters break runs, so "o'neil"
// becomes "O'Neil" and "3m co" becomes "3M Co".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			inWord = false
			b.WriteRune(r)
			continue
		}
		if inWord {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToTitle(r))
		}
		inWord = true
	}
	return b.String()
}
