package signal

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action is the recommendation attached to a Signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	// ActionSell is part of the wire vocabulary but no source produces it yet.
	ActionSell Action = "SELL"
)

// Signal is the recommendation for one symbol.
type Signal struct {
	Symbol  string   `json:"symbol"`
	Action  Action   `json:"action"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Source produces a Signal for a symbol. The HTTP layer only depends on this
// interface so a real model can replace Placeholder.
type Source interface {
	Signal(ctx context.Context, symbol string) (Signal, error)
}

// Placeholder is a deterministic stand-in for a scoring model: even-length
// symbols are BUY with score 1.00, odd-length symbols HOLD with score 1.50.
type Placeholder struct{}

var _ Source = Placeholder{}

// NewPlaceholder returns the placeholder source.
func NewPlaceholder() Placeholder { return Placeholder{} }

const placeholderReason = "Placeholder engine: deterministic demo"

var (
	baseScore = decimal.NewFromFloat(1.0)
	oddBonus  = decimal.NewFromFloat(0.5)
)

// Signal never fails.
func (Placeholder) Signal(_ context.Context, symbol string) (Signal, error) {
	s := Normalize(symbol)
	n := utf8.RuneCountInString(s)

	score := baseScore.Add(oddBonus.Mul(decimal.NewFromInt(int64(n % 2)))).Round(2)
	action := ActionHold
	if n%2 == 0 {
		action = ActionBuy
	}

	return Signal{
		Symbol: s,
		Action: action,
		Score:  score.InexactFloat64(),
		Reasons: []string{
			placeholderReason,
			fmt.Sprintf("Symbol length = %d → score %s", n, score.StringFixed(2)),
		},
	}, nil
}

// Normalize upper-cases and trims a symbol. Upper-casing is the full Unicode
// mapping, so "ß" counts as two characters.
func Normalize(symbol string) string {
	return strings.TrimSpace(cases.Upper(language.Und).String(symbol))
}
