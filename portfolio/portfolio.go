// Package portfolio models portfolio holdings and computes realized
// and mark-to-date profit from adjusted boundary prices.
package portfolio

import (
	"github.com/herrhippopotamus/trading-rustix/market"
)

// Portfolio is the metadata record of one portfolio. Holdings live in
// the portfolio store, not on this struct.
type Portfolio struct {
	ID          string
	Name        string
	Description string
}

// HoldingState is the lifecycle of one holding.
type HoldingState int

const (
	// Open holdings have no sell date and are marked to the request's
	// until date.
	Open HoldingState = iota
	// Closed holdings were sold; their profit is realized.
	Closed
)

// Holding is one position in a portfolio: a volume of a security
// bought on a date and possibly sold later. Owned by the portfolio
// store; the profit engine reads it, never mutates it.
type Holding struct {
	PortfolioID  string
	Ticker       market.Ticker
	Volume       float64
	PurchaseDate market.Date
	SellDate     market.Date // zero while the holding is open
}

func (h Holding) State() HoldingState {
	if h.SellDate.IsZero() {
		return Open
	}
	return Closed
}

// ResolveUntil returns the date the holding is priced at for a request
// ending at until: the sell date once sold, otherwise until itself.
func (h Holding) ResolveUntil(until market.Date) market.Date {
	if h.State() == Closed {
		return h.SellDate
	}
	return until
}
