package service

import (
	"github.com/herrhippopotamus/trading-rustix/analytics"
	"github.com/herrhippopotamus/trading-rustix/market"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
)

// catalog

type TickerRequest struct {
	Ticker string `json:"ticker"`
	Type   string `json:"security_type"`
}

type TickersRequest struct {
	Type                 string `json:"security_type"`
	Substring            string `json:"substring"`
	Limit                int    `json:"limit"`
	TradedWithinPastDays int    `json:"traded_within_past_n_days"`
}

type TickerDetailResponse struct {
	Ticker string            `json:"ticker"`
	Type   string            `json:"security_type"`
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields,omitempty"`
}

// series

type SecurityDataRequest struct {
	Ticker   string `json:"ticker"`
	Type     string `json:"security_type"`
	From     string `json:"from"`
	Until    string `json:"until"`
	Intraday bool   `json:"intraday"`
}

type BarResponse struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

type LatestDateRequest struct {
	Ticker   string `json:"ticker"`
	Type     string `json:"security_type"`
	Intraday bool   `json:"intraday"`
}

type LatestDateResponse struct {
	Date   string `json:"date"`
	Exists bool   `json:"exists"`
}

// movement

type MovementRequest struct {
	Ticker string `json:"ticker"`
	Type   string `json:"security_type"`
	Period string `json:"period"`
	Until  string `json:"until"`
}

type MovementResponse struct {
	Ticker      string  `json:"ticker"`
	Type        string  `json:"security_type"`
	Period      string  `json:"period"`
	Until       string  `json:"until"`
	Performance float64 `json:"performance"`
	Average     float64 `json:"average"`
	Volume      float64 `json:"volume"`
	Variance    float64 `json:"variance"`
	Stddev      float64 `json:"stddev"`
	Exists      bool    `json:"movement_exists"`
}

type RankedMovementsRequest struct {
	Type        string  `json:"security_type"`
	Period      string  `json:"period"`
	Until       string  `json:"until"`
	SortBy      string  `json:"sort_by"`
	Limit       int     `json:"limit"`
	MinVolume   float64 `json:"min_volume"`
	MinVariance float64 `json:"min_variance"`
	MaxVariance float64 `json:"max_variance"`
}

// correlation

type CorrelationsRequest struct {
	Tickers []TickerRequest `json:"tickers"`
	Period  string          `json:"period"`
	Until   string          `json:"until"`
}

type CorrelResponse struct {
	Ticker0     string  `json:"ticker0"`
	Type0       string  `json:"security_type0"`
	Ticker1     string  `json:"ticker1"`
	Type1       string  `json:"security_type1"`
	Period      string  `json:"period"`
	Until       string  `json:"until"`
	Correl      float64 `json:"correl"`
	Volume0     float64 `json:"volume0"`
	Volume1     float64 `json:"volume1"`
	Exists      bool    `json:"correl_exists"`
}

type MutualCorrelResponse struct {
	Ticker       string           `json:"ticker"`
	Type         string           `json:"security_type"`
	Movement     MovementResponse `json:"movement"`
	Correlations []CorrelResponse `json:"correlations"`
}

type CorrelatingTickersRequest struct {
	Period    string  `json:"period"`
	Until     string  `json:"until"`
	Limit     int     `json:"limit"`
	MinVolume float64 `json:"min_volume"`
	Sign      string  `json:"sign"`
}

// splits

type SplitsRequest struct {
	From  string `json:"from"`
	Until string `json:"until"`
	Limit int    `json:"limit"`
}

type SplitResponse struct {
	Ticker      string `json:"ticker"`
	Type        string `json:"security_type"`
	Effective   string `json:"effective_date"`
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// portfolio

type PortfolioResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type BuySecurityRequest struct {
	PortfolioID  string  `json:"portfolio_id"`
	Ticker       string  `json:"ticker"`
	Type         string  `json:"security_type"`
	Volume       float64 `json:"volume"`
	PurchaseDate string  `json:"purchase_date"`
}

type SellSecurityRequest struct {
	PortfolioID string `json:"portfolio_id"`
	Ticker      string `json:"ticker"`
	Type        string `json:"security_type"`
	SellDate    string `json:"sell_date"`
}

type DeleteSecurityRequest struct {
	PortfolioID string `json:"portfolio_id"`
	Ticker      string `json:"ticker"`
	Type        string `json:"security_type"`
}

type SecurityResponse struct {
	PortfolioID  string  `json:"portfolio_id"`
	Ticker       string  `json:"ticker"`
	Type         string  `json:"security_type"`
	Volume       float64 `json:"volume"`
	PurchaseDate string  `json:"purchase_date"`
	SellDate     string  `json:"sell_date,omitempty"`
}

type PortfolioProfitsRequest struct {
	PortfolioID string             `json:"portfolio_id"`
	Securities  []BuySecurityData  `json:"securities,omitempty"`
	Until       string             `json:"until"`
	Partition   string             `json:"partition"`
}

// BuySecurityData is an ad-hoc holding passed directly to a profit
// request instead of being looked up from a stored portfolio.
type BuySecurityData struct {
	Ticker       string  `json:"ticker"`
	Type         string  `json:"security_type"`
	Volume       float64 `json:"volume"`
	PurchaseDate string  `json:"purchase_date"`
	SellDate     string  `json:"sell_date,omitempty"`
}

type ProfitResponse struct {
	Ticker         string  `json:"ticker"`
	Type           string  `json:"security_type"`
	Volume         float64 `json:"volume"`
	PurchaseDate   string  `json:"purchase_date"`
	Until          string  `json:"until"`
	PurchasePrice  float64 `json:"purchase_price"`
	UntilPrice     float64 `json:"until_price"`
	ProfitPerShare float64 `json:"profit_per_share"`
	TotalProfit    float64 `json:"total_profit"`
	Exists         bool    `json:"profit_exists"`
}

// conversions from domain types

func toMovement(m analytics.Movement) MovementResponse {
	return MovementResponse{
		Ticker:      m.Ticker.Symbol,
		Type:        m.Ticker.Type.String(),
		Period:      m.Period.String(),
		Until:       m.Until.String(),
		Performance: m.Performance,
		Average:     m.Average,
		Volume:      m.Volume,
		Variance:    m.Variance,
		Stddev:      m.Stddev,
		Exists:      m.Exists,
	}
}

func toCorrel(c analytics.Correl) CorrelResponse {
	return CorrelResponse{
		Ticker0: c.Ticker0.Symbol,
		Type0:   c.Ticker0.Type.String(),
		Ticker1: c.Ticker1.Symbol,
		Type1:   c.Ticker1.Type.String(),
		Period:  c.Period.String(),
		Until:   c.Until.String(),
		Correl:  c.Correlation,
		Volume0: c.Volume0,
		Volume1: c.Volume1,
		Exists:  c.Exists,
	}
}

func toDetail(d market.TickerDetail) TickerDetailResponse {
	return TickerDetailResponse{
		Ticker: d.Symbol,
		Type:   d.Type.String(),
		Name:   d.Name,
		Fields: d.Fields,
	}
}

func toSecurity(h portfolio.Holding) SecurityResponse {
	r := SecurityResponse{
		PortfolioID:  h.PortfolioID,
		Ticker:       h.Ticker.Symbol,
		Type:         h.Ticker.Type.String(),
		Volume:       h.Volume,
		PurchaseDate: h.PurchaseDate.String(),
	}
	if !h.SellDate.IsZero() {
		r.SellDate = h.SellDate.String()
	}
	return r
}

func toProfit(p portfolio.ProfitRecord) ProfitResponse {
	return ProfitResponse{
		Ticker:         p.Ticker.Symbol,
		Type:           p.Ticker.Type.String(),
		Volume:         p.Volume,
		PurchaseDate:   p.PurchaseDate.String(),
		Until:          p.Until.String(),
		PurchasePrice:  p.PurchasePrice,
		UntilPrice:     p.UntilPrice,
		ProfitPerShare: p.ProfitPerShare,
		TotalProfit:    p.TotalProfit,
		Exists:         p.Exists,
	}
}
