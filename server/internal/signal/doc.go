// Package signal produces per-symbol recommendations.
//
// Source is the seam between the HTTP layer and whatever scores symbols.
// Placeholder is the only implementation today: a pure function of the
// normalized symbol's length parity. Lucky runs the head of the fixed
// Universe through a Source.
//
// SELL is declared for wire compatibility; nothing emits it.
package signal
