// Package market holds the core market data model: tickers, price bars,
// calendar periods, split adjustment and period aggregation.
package market

import (
	"fmt"
	"strings"
)

// TickerType is the closed set of security classes the engine serves.
type TickerType int

const (
	Stock TickerType = iota
	ETF
	Commodity
	Currency
	Crypto
)

func (t TickerType) String() string {
	switch t {
	case Stock:
		return "stock"
	case ETF:
		return "etf"
	case Commodity:
		return "commodity"
	case Currency:
		return "currency"
	case Crypto:
		return "crypto"
	default:
		return fmt.Sprintf("tickertype(%d)", int(t))
	}
}

// Valid reports whether t is one of the known security classes.
func (t TickerType) Valid() bool {
	return t >= Stock && t <= Crypto
}

// ParseTickerType accepts the wire names used by the catalog schema.
func ParseTickerType(s string) (TickerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock":
		return Stock, nil
	case "etf":
		return ETF, nil
	case "commodity":
		return Commodity, nil
	case "currency":
		return Currency, nil
	case "crypto":
		return Crypto, nil
	default:
		return Stock, fmt.Errorf("unknown ticker type %q", s)
	}
}

// Ticker is the value key identifying a security. It is immutable; the
// engine never holds a mutable reference to catalog state.
type Ticker struct {
	Symbol string
	Type   TickerType
}

func (t Ticker) String() string {
	return t.Symbol + "/" + t.Type.String()
}

// Less orders tickers by symbol then type, the deterministic tie-break
// used by every ranked result set.
func (t Ticker) Less(o Ticker) bool {
	if t.Symbol != o.Symbol {
		return t.Symbol < o.Symbol
	}
	return t.Type < o.Type
}

// TickerDetail is the catalog record behind a ticker key.
type TickerDetail struct {
	Ticker
	Name   string
	Fields map[string]string
}
