package signal

import (
	"context"
	"fmt"
)

// Universe is the fixed candidate list for demo picks, in pick order.
var Universe = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "AVGO", "JPM", "UNH", "XOM"}

// LuckyCount is how many symbols from the head of Universe are picked.
const LuckyCount = 5

// LuckyNote is returned with every set of picks.
const LuckyNote = "Demo picks. Not investment advice. Real logic coming soon."

// LuckyResponse is the payload for GET /lucky.
type LuckyResponse struct {
	Picks []Signal `json:"picks"`
	Note  string   `json:"note"`
}

// Lucky runs the first LuckyCount symbols of Universe through src.
func Lucky(ctx context.Context, src Source) (LuckyResponse, error) {
	picks := make([]Signal, 0, LuckyCount)
	for _, sym := range Universe[:LuckyCount] {
		sig, err := src.Signal(ctx, sym)
		if err != nil {
			return LuckyResponse{}, fmt.Errorf("lucky %s: %w", sym, err)
		}
		picks = append(picks, sig)
	}
	return LuckyResponse{Picks: picks, Note: LuckyNote}, nil
}
