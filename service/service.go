// Package service validates requests, runs them against the analytics
// and portfolio engines and maps domain results onto the wire types the
// HTTP layer serves.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/herrhippopotamus/trading-rustix/analytics"
	"github.com/herrhippopotamus/trading-rustix/market"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
	"github.com/herrhippopotamus/trading-rustix/store"
)

const (
	defaultTickerLimit = 100
	defaultTradedDays  = 10
)

// Service is the operation surface behind the HTTP facade.
type Service struct {
	log     *zap.Logger
	store   store.Store
	engine  *analytics.Engine
	profits *portfolio.ProfitEngine
}

func New(log *zap.Logger, st store.Store, eng *analytics.Engine, profits *portfolio.ProfitEngine) *Service {
	return &Service{log: log, store: st, engine: eng, profits: profits}
}

// --- request parsing ---

func parseTicker(symbol, typ string) (market.Ticker, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return market.Ticker{}, invalidf("ticker symbol required")
	}
	tt, err := market.ParseTickerType(typ)
	if err != nil {
		return market.Ticker{}, invalidf("%v", err)
	}
	return market.Ticker{Symbol: sym, Type: tt}, nil
}

// parseTypeFilter maps an empty type to the any-type wildcard.
func parseTypeFilter(typ string) (market.TickerType, error) {
	if strings.TrimSpace(typ) == "" {
		return store.AnyType, nil
	}
	tt, err := market.ParseTickerType(typ)
	if err != nil {
		return store.AnyType, invalidf("%v", err)
	}
	return tt, nil
}

// parseUntil defaults an absent until date to today in New York.
func parseUntil(s string) (market.Date, error) {
	if strings.TrimSpace(s) == "" {
		return market.DateOf(time.Now().In(market.Exchange)), nil
	}
	d, err := market.ParseDate(s)
	if err != nil {
		return market.Date{}, invalidf("%v", err)
	}
	return d, nil
}

func parseRequiredDate(field, s string) (market.Date, error) {
	if strings.TrimSpace(s) == "" {
		return market.Date{}, invalidf("%s required", field)
	}
	d, err := market.ParseDate(s)
	if err != nil {
		return market.Date{}, invalidf("%s: %v", field, err)
	}
	return d, nil
}

func parsePeriod(s string) (market.Period, error) {
	p, err := market.ParsePeriod(s)
	if err != nil {
		return p, invalidf("%v", err)
	}
	return p, nil
}

// storeErr shields storage failures: the caller sees the taxonomy, the
// log carries the cause.
func (s *Service) storeErr(op string, err error) error {
	s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	return ErrUnavailable
}

// --- catalog ---

func (s *Service) TickerDetails(ctx context.Context, req TickerRequest) (TickerDetailResponse, error) {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return TickerDetailResponse{}, err
	}
	d, ok, err := s.store.TickerDetails(ctx, t)
	if err != nil {
		return TickerDetailResponse{}, s.storeErr("ticker details", err)
	}
	if !ok {
		return TickerDetailResponse{}, notFoundf("ticker %s", t)
	}
	return toDetail(d), nil
}

func (s *Service) Tickers(ctx context.Context, req TickersRequest) ([]TickerDetailResponse, error) {
	typ, err := parseTypeFilter(req.Type)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTickerLimit
	}
	days := req.TradedWithinPastDays
	if days <= 0 {
		days = defaultTradedDays
	}
	today := market.DateOf(time.Now().In(market.Exchange))
	details, err := s.store.Tickers(ctx, store.TickerFilter{
		Type:        typ,
		Substring:   req.Substring,
		Limit:       limit,
		TradedSince: today.Add(-days),
	})
	if err != nil {
		return nil, s.storeErr("tickers", err)
	}
	out := make([]TickerDetailResponse, len(details))
	for i, d := range details {
		out[i] = toDetail(d)
	}
	return out, nil
}

// --- series ---

// SecurityData returns the split-adjusted bar series of one ticker over
// [from, until]. The until day is inclusive.
func (s *Service) SecurityData(ctx context.Context, req SecurityDataRequest) ([]BarResponse, error) {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return nil, err
	}
	from, err := parseRequiredDate("from", req.From)
	if err != nil {
		return nil, err
	}
	until, err := parseUntil(req.Until)
	if err != nil {
		return nil, err
	}
	if until.Before(from) {
		return nil, invalidf("until %s precedes from %s", until, from)
	}

	bars, err := s.store.Bars(ctx, t, from.Time(), until.Add(1).Time(), req.Intraday)
	if err != nil {
		return nil, s.storeErr("bars", err)
	}
	splits, err := s.store.Splits(ctx, t)
	if err != nil {
		return nil, s.storeErr("splits", err)
	}
	bars = market.AdjustSplits(bars, splits)

	out := make([]BarResponse, len(bars))
	for i, b := range bars {
		out[i] = BarResponse{
			Date:   b.Time.Format(market.DatetimeFormat),
			Price:  b.Price,
			Volume: b.Volume,
		}
	}
	return out, nil
}

func (s *Service) LatestSecurityDataDate(ctx context.Context, req LatestDateRequest) (LatestDateResponse, error) {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return LatestDateResponse{}, err
	}
	_, last, ok, err := s.store.DataRange(ctx, t, req.Intraday)
	if err != nil {
		return LatestDateResponse{}, s.storeErr("data range", err)
	}
	if !ok {
		return LatestDateResponse{}, nil
	}
	return LatestDateResponse{Date: last.Format(market.DatetimeFormat), Exists: true}, nil
}

// --- movement ---

func (s *Service) Movement(ctx context.Context, req MovementRequest) (MovementResponse, error) {
	return s.movement(ctx, req, false)
}

func (s *Service) AvgMovement(ctx context.Context, req MovementRequest) (MovementResponse, error) {
	return s.movement(ctx, req, true)
}

func (s *Service) movement(ctx context.Context, req MovementRequest, average bool) (MovementResponse, error) {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return MovementResponse{}, err
	}
	p, err := parsePeriod(req.Period)
	if err != nil {
		return MovementResponse{}, err
	}
	until, err := parseUntil(req.Until)
	if err != nil {
		return MovementResponse{}, err
	}

	var m analytics.Movement
	if average {
		m, err = s.engine.AvgMovement(ctx, t, p, until)
	} else {
		m, err = s.engine.Movement(ctx, t, p, until)
	}
	if err != nil {
		return MovementResponse{}, s.storeErr("movement", err)
	}
	return toMovement(m), nil
}

func (s *Service) Movements(ctx context.Context, req RankedMovementsRequest) ([]MovementResponse, error) {
	return s.movements(ctx, req, false)
}

func (s *Service) AvgMovements(ctx context.Context, req RankedMovementsRequest) ([]MovementResponse, error) {
	return s.movements(ctx, req, true)
}

func (s *Service) movements(ctx context.Context, req RankedMovementsRequest, average bool) ([]MovementResponse, error) {
	typ, err := parseTypeFilter(req.Type)
	if err != nil {
		return nil, err
	}
	p, err := parsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	until, err := parseUntil(req.Until)
	if err != nil {
		return nil, err
	}
	sort := req.SortBy
	if strings.TrimSpace(sort) == "" {
		sort = "winner"
	}
	sortBy, err := analytics.ParseSortBy(sort)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	ms, err := s.engine.Movements(ctx, analytics.MovementQuery{
		Type:        typ,
		Until:       until,
		Period:      p,
		SortBy:      sortBy,
		Limit:       req.Limit,
		MinVolume:   req.MinVolume,
		MinVariance: req.MinVariance,
		MaxVariance: req.MaxVariance,
		Average:     average,
	})
	if err != nil {
		return nil, s.storeErr("movements", err)
	}
	out := make([]MovementResponse, len(ms))
	for i, m := range ms {
		out[i] = toMovement(m)
	}
	return out, nil
}

// --- correlation ---

func (s *Service) Correlations(ctx context.Context, req CorrelationsRequest) ([]CorrelResponse, error) {
	tickers, p, until, err := s.correlationArgs(req.Tickers, req.Period, req.Until)
	if err != nil {
		return nil, err
	}
	cs, err := s.engine.Correlations(ctx, tickers, p, until)
	if err != nil {
		return nil, s.storeErr("correlations", err)
	}
	out := make([]CorrelResponse, len(cs))
	for i, c := range cs {
		out[i] = toCorrel(c)
	}
	return out, nil
}

func (s *Service) MutualCorrelations(ctx context.Context, req CorrelationsRequest) ([]MutualCorrelResponse, error) {
	tickers, p, until, err := s.correlationArgs(req.Tickers, req.Period, req.Until)
	if err != nil {
		return nil, err
	}
	mcs, err := s.engine.MutualCorrelations(ctx, tickers, p, until)
	if err != nil {
		return nil, s.storeErr("mutual correlations", err)
	}
	out := make([]MutualCorrelResponse, len(mcs))
	for i, mc := range mcs {
		r := MutualCorrelResponse{
			Ticker:   mc.Ticker.Symbol,
			Type:     mc.Ticker.Type.String(),
			Movement: toMovement(mc.Movement),
		}
		for _, c := range mc.Correlations {
			r.Correlations = append(r.Correlations, toCorrel(c))
		}
		out[i] = r
	}
	return out, nil
}

func (s *Service) correlationArgs(refs []TickerRequest, period, until string) ([]market.Ticker, market.Period, market.Date, error) {
	if len(refs) < 2 {
		return nil, 0, market.Date{}, invalidf("at least two tickers required")
	}
	tickers := make([]market.Ticker, len(refs))
	for i, ref := range refs {
		t, err := parseTicker(ref.Ticker, ref.Type)
		if err != nil {
			return nil, 0, market.Date{}, err
		}
		tickers[i] = t
	}
	p, err := parsePeriod(period)
	if err != nil {
		return nil, 0, market.Date{}, err
	}
	u, err := parseUntil(until)
	if err != nil {
		return nil, 0, market.Date{}, err
	}
	return tickers, p, u, nil
}

// CorrelatingTickers streams the strongest correlating pairs of the
// active universe. The result channel closes when the stream ends or
// ctx is cancelled; a scan failure arrives on the error channel.
func (s *Service) CorrelatingTickers(ctx context.Context, req CorrelatingTickersRequest) (<-chan CorrelResponse, <-chan error, error) {
	p, err := parsePeriod(req.Period)
	if err != nil {
		return nil, nil, err
	}
	until, err := parseUntil(req.Until)
	if err != nil {
		return nil, nil, err
	}
	sign, err := analytics.ParseSign(req.Sign)
	if err != nil {
		return nil, nil, invalidf("%v", err)
	}

	pairs, scanErrs := s.engine.CorrelatingPairs(ctx, analytics.PairScan{
		Until:     until,
		Period:    p,
		Limit:     req.Limit,
		MinVolume: req.MinVolume,
		Sign:      sign,
	})

	out := make(chan CorrelResponse)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for c := range pairs {
			select {
			case out <- toCorrel(c):
			case <-ctx.Done():
				return
			}
		}
		if err := <-scanErrs; err != nil {
			s.log.Error("correlating tickers scan", zap.Error(err))
			errc <- ErrUnavailable
		}
	}()
	return out, errc, nil
}

// --- splits ---

func (s *Service) StockSplits(ctx context.Context, req SplitsRequest) ([]SplitResponse, error) {
	from, err := parseRequiredDate("from", req.From)
	if err != nil {
		return nil, err
	}
	until, err := parseUntil(req.Until)
	if err != nil {
		return nil, err
	}
	splits, err := s.store.SplitsBetween(ctx, from, until, req.Limit)
	if err != nil {
		return nil, s.storeErr("splits", err)
	}
	out := make([]SplitResponse, len(splits))
	for i, sp := range splits {
		out[i] = SplitResponse{
			Ticker:      sp.Ticker.Symbol,
			Type:        sp.Ticker.Type.String(),
			Effective:   sp.Effective.String(),
			Numerator:   sp.Numerator,
			Denominator: sp.Denominator,
		}
	}
	return out, nil
}

// --- portfolio ---

func (s *Service) CreatePortfolio(ctx context.Context, req CreatePortfolioRequest) (PortfolioResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return PortfolioResponse{}, invalidf("portfolio name required")
	}
	p, err := s.store.CreatePortfolio(ctx, name, req.Description)
	if err != nil {
		return PortfolioResponse{}, s.storeErr("create portfolio", err)
	}
	return PortfolioResponse(p), nil
}

func (s *Service) DeletePortfolio(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("portfolio id required")
	}
	if err := s.store.DeletePortfolio(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundf("portfolio %s", id)
		}
		return s.storeErr("delete portfolio", err)
	}
	return nil
}

func (s *Service) Portfolio(ctx context.Context, id string) (PortfolioResponse, error) {
	if strings.TrimSpace(id) == "" {
		return PortfolioResponse{}, invalidf("portfolio id required")
	}
	p, ok, err := s.store.Portfolio(ctx, id)
	if err != nil {
		return PortfolioResponse{}, s.storeErr("portfolio", err)
	}
	if !ok {
		return PortfolioResponse{}, notFoundf("portfolio %s", id)
	}
	return PortfolioResponse(p), nil
}

func (s *Service) Portfolios(ctx context.Context, filter string) ([]PortfolioResponse, error) {
	ps, err := s.store.Portfolios(ctx, filter)
	if err != nil {
		return nil, s.storeErr("portfolios", err)
	}
	out := make([]PortfolioResponse, len(ps))
	for i, p := range ps {
		out[i] = PortfolioResponse(p)
	}
	return out, nil
}

func (s *Service) BuySecurity(ctx context.Context, req BuySecurityRequest) error {
	h, err := s.holding(req)
	if err != nil {
		return err
	}
	if _, err := s.Portfolio(ctx, req.PortfolioID); err != nil {
		return err
	}
	if err := s.store.BuySecurity(ctx, h); err != nil {
		return s.storeErr("buy security", err)
	}
	return nil
}

func (s *Service) holding(req BuySecurityRequest) (portfolio.Holding, error) {
	if strings.TrimSpace(req.PortfolioID) == "" {
		return portfolio.Holding{}, invalidf("portfolio id required")
	}
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return portfolio.Holding{}, err
	}
	if req.Volume <= 0 {
		return portfolio.Holding{}, invalidf("volume must be positive")
	}
	purchase, err := parseRequiredDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return portfolio.Holding{}, err
	}
	return portfolio.Holding{
		PortfolioID:  req.PortfolioID,
		Ticker:       t,
		Volume:       req.Volume,
		PurchaseDate: purchase,
	}, nil
}

func (s *Service) SellSecurity(ctx context.Context, req SellSecurityRequest) error {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return err
	}
	sell, err := parseRequiredDate("sell_date", req.SellDate)
	if err != nil {
		return err
	}
	if err := s.store.SellSecurity(ctx, req.PortfolioID, t, sell); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundf("no open holding %s in portfolio %s", t, req.PortfolioID)
		}
		return s.storeErr("sell security", err)
	}
	return nil
}

func (s *Service) DeleteSecurity(ctx context.Context, req DeleteSecurityRequest) error {
	t, err := parseTicker(req.Ticker, req.Type)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSecurity(ctx, req.PortfolioID, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundf("holding %s in portfolio %s", t, req.PortfolioID)
		}
		return s.storeErr("delete security", err)
	}
	return nil
}

func (s *Service) PortfolioSecurities(ctx context.Context, id string) ([]SecurityResponse, error) {
	if _, err := s.Portfolio(ctx, id); err != nil {
		return nil, err
	}
	hs, err := s.store.Securities(ctx, id)
	if err != nil {
		return nil, s.storeErr("securities", err)
	}
	out := make([]SecurityResponse, len(hs))
	for i, h := range hs {
		out[i] = toSecurity(h)
	}
	return out, nil
}

// PortfolioProfits values a stored portfolio, or the ad-hoc securities
// carried on the request, as of until. A non-empty partition slices
// each holding into calendar sub-periods.
func (s *Service) PortfolioProfits(ctx context.Context, req PortfolioProfitsRequest) ([]ProfitResponse, error) {
	until, err := parseUntil(req.Until)
	if err != nil {
		return nil, err
	}

	var holdings []portfolio.Holding
	switch {
	case len(req.Securities) > 0:
		holdings, err = s.adhocHoldings(req.Securities)
		if err != nil {
			return nil, err
		}
	case strings.TrimSpace(req.PortfolioID) != "":
		if _, err := s.Portfolio(ctx, req.PortfolioID); err != nil {
			return nil, err
		}
		holdings, err = s.store.Securities(ctx, req.PortfolioID)
		if err != nil {
			return nil, s.storeErr("securities", err)
		}
	default:
		return nil, invalidf("portfolio id or securities required")
	}

	var records []portfolio.ProfitRecord
	if strings.TrimSpace(req.Partition) == "" || strings.EqualFold(req.Partition, "none") {
		records, err = s.profits.Profits(ctx, holdings, until)
	} else {
		var p market.Period
		if p, err = parsePeriod(req.Partition); err != nil {
			return nil, err
		}
		if p.Intraday() {
			return nil, invalidf("intraday partition %s not supported", p)
		}
		records, err = s.profits.PartitionedProfits(ctx, holdings, until, p)
	}
	if err != nil {
		return nil, s.storeErr("profits", err)
	}

	out := make([]ProfitResponse, len(records))
	for i, r := range records {
		out[i] = toProfit(r)
	}
	return out, nil
}

func (s *Service) adhocHoldings(secs []BuySecurityData) ([]portfolio.Holding, error) {
	out := make([]portfolio.Holding, len(secs))
	for i, sec := range secs {
		t, err := parseTicker(sec.Ticker, sec.Type)
		if err != nil {
			return nil, err
		}
		if sec.Volume <= 0 {
			return nil, invalidf("volume must be positive")
		}
		purchase, err := parseRequiredDate("purchase_date", sec.PurchaseDate)
		if err != nil {
			return nil, err
		}
		h := portfolio.Holding{Ticker: t, Volume: sec.Volume, PurchaseDate: purchase}
		if strings.TrimSpace(sec.SellDate) != "" {
			if h.SellDate, err = parseRequiredDate("sell_date", sec.SellDate); err != nil {
				return nil, err
			}
		}
		out[i] = h
	}
	return out, nil
}
