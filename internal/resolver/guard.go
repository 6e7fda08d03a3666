package resolver

import (
	"fmt"
	"strings"
	"time"

	"Recharted/internal/model"
)

// DefaultHistoryGuardExemptions lists tokens whose history is served even
// when a tweet predates it. The PUMP token launched with a pre-market that
// its own tweets reference.
var DefaultHistoryGuardExemptions = []string{
	"pumpCmXqMfrsAkQ5r49WcJnRayYRqmXz6ae8H7H9Dfn",
	"PUMP",
}

// PredatesHistoryError reports that the tweet was posted before the earliest
// available price data. Series holds the data that was found.
type PredatesHistoryError struct {
	TweetTime    time.Time
	EarliestData time.Time
	Series       *model.PriceSeries
}

func (e *PredatesHistoryError) Error() string {
	return fmt.Sprintf("tweet at %s predates available price history starting %s",
		e.TweetTime.UTC().Format(time.RFC3339), e.EarliestData.UTC().Format(time.RFC3339))
}

// Warning is the human readable message shown to users.
func (e *PredatesHistoryError) Warning() string {
	return "This tweet was posted before the token had any trading history. " +
		"The chart starts at " + e.EarliestData.UTC().Format("Jan 2, 2006 15:04 MST") + "."
}

// HistoryGuard decides whether a tweet predating the data is an error.
type HistoryGuard struct {
	exempt map[string]struct{}
}

// NewHistoryGuard builds a guard with the given exempt addresses or symbols,
// matched case-insensitively.
func NewHistoryGuard(exemptions []string) HistoryGuard {
	g := HistoryGuard{exempt: make(map[string]struct{}, len(exemptions))}
	for _, e := range exemptions {
		if e = strings.TrimSpace(e); e != "" {
			g.exempt[strings.ToLower(e)] = struct{}{}
		}
	}
	return g
}

// Exempt reports whether the token identified by address or symbol bypasses the guard.
func (g HistoryGuard) Exempt(address, symbol string) bool {
	for _, k := range []string{address, symbol} {
		if k == "" {
			continue
		}
		if _, ok := g.exempt[strings.ToLower(k)]; ok {
			return true
		}
	}
	return false
}

// Predates reports whether earliest is later than tweetTime by more than slack.
func Predates(tweetTime, earliest time.Time, slack time.Duration) bool {
	if tweetTime.IsZero() || earliest.IsZero() {
		return false
	}
	return earliest.After(tweetTime.Add(slack))
}
