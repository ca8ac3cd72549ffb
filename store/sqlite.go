package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/herrhippopotamus/trading-rustix/market"
	"github.com/herrhippopotamus/trading-rustix/pkg/id"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
)

// SQLite implements Store on a single sqlite database. Timestamps are
// stored as naive exchange wall-clock text so that rows sort and range
// lexicographically.
type SQLite struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func encodeTime(t time.Time) string {
	return t.In(market.Exchange).Format(market.DatetimeFormat)
}

func decodeTime(s string) (time.Time, error) {
	return market.ParseDatetime(s)
}

// --- catalog ---

func (s *SQLite) SaveTicker(ctx context.Context, d market.TickerDetail) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickers (symbol, type, name) VALUES (?, ?, ?)
		ON CONFLICT(symbol, type) DO UPDATE SET name = excluded.name`,
		d.Symbol, int(d.Type), d.Name)
	if err != nil {
		return fmt.Errorf("save ticker %s: %w", d.Ticker, err)
	}
	for field, value := range d.Fields {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO ticker_fields (symbol, type, field, value) VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol, type, field) DO UPDATE SET value = excluded.value`,
			d.Symbol, int(d.Type), field, value); err != nil {
			return fmt.Errorf("save ticker field %s.%s: %w", d.Ticker, field, err)
		}
	}
	return nil
}

func (s *SQLite) TickerDetails(ctx context.Context, t market.Ticker) (market.TickerDetail, bool, error) {
	d := market.TickerDetail{Ticker: t}
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM tickers WHERE symbol = ? AND type = ?`,
		t.Symbol, int(t.Type)).Scan(&d.Name)
	if err == sql.ErrNoRows {
		return market.TickerDetail{}, false, nil
	}
	if err != nil {
		return market.TickerDetail{}, false, fmt.Errorf("ticker %s: %w", t, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value FROM ticker_fields WHERE symbol = ? AND type = ?`,
		t.Symbol, int(t.Type))
	if err != nil {
		return market.TickerDetail{}, false, fmt.Errorf("ticker fields %s: %w", t, err)
	}
	defer rows.Close()
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return market.TickerDetail{}, false, err
		}
		if d.Fields == nil {
			d.Fields = make(map[string]string)
		}
		d.Fields[field] = value
	}
	return d, true, rows.Err()
}

func (s *SQLite) Tickers(ctx context.Context, f TickerFilter) ([]market.TickerDetail, error) {
	query := `SELECT DISTINCT t.symbol, t.type, t.name FROM tickers t`
	var args []any
	var where []string

	if !f.TradedSince.IsZero() {
		query += ` JOIN bars b ON b.symbol = t.symbol AND b.type = t.type`
		where = append(where, `b.ts >= ?`)
		args = append(args, encodeTime(f.TradedSince.Time()))
	}
	if f.Type >= 0 {
		where = append(where, `t.type = ?`)
		args = append(args, int(f.Type))
	}
	if f.Substring != "" {
		where = append(where, `(t.symbol LIKE ? OR t.name LIKE ?)`)
		pat := "%" + f.Substring + "%"
		args = append(args, pat, pat)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY t.symbol, t.type`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	defer rows.Close()

	var out []market.TickerDetail
	for rows.Next() {
		var d market.TickerDetail
		var typ int
		if err := rows.Scan(&d.Symbol, &typ, &d.Name); err != nil {
			return nil, err
		}
		d.Type = market.TickerType(typ)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) ActiveTickers(ctx context.Context, typ market.TickerType, since market.Date) ([]market.Ticker, error) {
	query := `SELECT DISTINCT symbol, type FROM bars WHERE ts >= ?`
	args := []any{encodeTime(since.Time())}
	if typ >= 0 {
		query += ` AND type = ?`
		args = append(args, int(typ))
	}
	query += ` ORDER BY symbol, type`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("active tickers: %w", err)
	}
	defer rows.Close()

	var out []market.Ticker
	for rows.Next() {
		var t market.Ticker
		var ty int
		if err := rows.Scan(&t.Symbol, &ty); err != nil {
			return nil, err
		}
		t.Type = market.TickerType(ty)
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- bars ---

func (s *SQLite) SaveBars(ctx context.Context, t market.Ticker, bars []market.Bar, intraday bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save bars %s: %w", t, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, type, ts, intraday, price, volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, type, ts, intraday)
		DO UPDATE SET price = excluded.price, volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("save bars %s: %w", t, err)
	}
	defer stmt.Close()

	flag := 0
	if intraday {
		flag = 1
	}
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, t.Symbol, int(t.Type), encodeTime(b.Time), flag, b.Price, b.Volume); err != nil {
			return fmt.Errorf("save bar %s %s: %w", t, b.Time, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET generation = generation + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Bars(ctx context.Context, t market.Ticker, from, until time.Time, intraday bool) ([]market.Bar, error) {
	flag := 0
	if intraday {
		flag = 1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, price, volume FROM bars
		WHERE symbol = ? AND type = ? AND intraday = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC`,
		t.Symbol, int(t.Type), flag, encodeTime(from), encodeTime(until))
	if err != nil {
		return nil, fmt.Errorf("bars %s: %w", t, err)
	}
	defer rows.Close()

	var out []market.Bar
	for rows.Next() {
		var ts string
		var b market.Bar
		if err := rows.Scan(&ts, &b.Price, &b.Volume); err != nil {
			return nil, err
		}
		if b.Time, err = decodeTime(ts); err != nil {
			return nil, fmt.Errorf("bars %s: %w", t, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) DataRange(ctx context.Context, t market.Ticker, intraday bool) (time.Time, time.Time, bool, error) {
	flag := 0
	if intraday {
		flag = 1
	}
	var first, last sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(ts), MAX(ts) FROM bars
		WHERE symbol = ? AND type = ? AND intraday = ?`,
		t.Symbol, int(t.Type), flag).Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("data range %s: %w", t, err)
	}
	if !first.Valid || !last.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	f, err := decodeTime(first.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	l, err := decodeTime(last.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return f, l, true, nil
}

// --- splits ---

func (s *SQLite) SaveSplit(ctx context.Context, sp market.Split) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save split %s: %w", sp.Ticker, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO splits (symbol, type, effective, numerator, denominator)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, type, effective)
		DO UPDATE SET numerator = excluded.numerator, denominator = excluded.denominator`,
		sp.Ticker.Symbol, int(sp.Ticker.Type), sp.Effective.String(), sp.Numerator, sp.Denominator); err != nil {
		return fmt.Errorf("save split %s: %w", sp.Ticker, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meta SET generation = generation + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Splits(ctx context.Context, t market.Ticker) ([]market.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT effective, numerator, denominator FROM splits
		WHERE symbol = ? AND type = ? ORDER BY effective ASC`,
		t.Symbol, int(t.Type))
	if err != nil {
		return nil, fmt.Errorf("splits %s: %w", t, err)
	}
	defer rows.Close()
	return scanSplits(rows, func(sp *market.Split) { sp.Ticker = t })
}

func (s *SQLite) SplitsBetween(ctx context.Context, from, until market.Date, limit int) ([]market.Split, error) {
	query := `
		SELECT symbol, type, effective, numerator, denominator FROM splits
		WHERE effective >= ? AND effective <= ? ORDER BY effective ASC, symbol ASC`
	args := []any{from.String(), until.String()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("splits between: %w", err)
	}
	defer rows.Close()

	var out []market.Split
	for rows.Next() {
		var sp market.Split
		var typ int
		var eff string
		if err := rows.Scan(&sp.Ticker.Symbol, &typ, &eff, &sp.Numerator, &sp.Denominator); err != nil {
			return nil, err
		}
		sp.Ticker.Type = market.TickerType(typ)
		if sp.Effective, err = market.ParseDate(eff); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func scanSplits(rows *sql.Rows, fix func(*market.Split)) ([]market.Split, error) {
	var out []market.Split
	for rows.Next() {
		var sp market.Split
		var eff string
		if err := rows.Scan(&eff, &sp.Numerator, &sp.Denominator); err != nil {
			return nil, err
		}
		var err error
		if sp.Effective, err = market.ParseDate(eff); err != nil {
			return nil, err
		}
		fix(&sp)
		out = append(out, sp)
	}
	return out, rows.Err()
}

// --- generation ---

func (s *SQLite) Generation(ctx context.Context) (int64, error) {
	var gen int64
	if err := s.db.QueryRowContext(ctx, `SELECT generation FROM meta WHERE id = 1`).Scan(&gen); err != nil {
		return 0, fmt.Errorf("generation: %w", err)
	}
	return gen, nil
}

// --- portfolios ---

func (s *SQLite) CreatePortfolio(ctx context.Context, name, description string) (portfolio.Portfolio, error) {
	p := portfolio.Portfolio{ID: id.New(), Name: name, Description: description}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolios (id, name, description) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.Description)
	if err != nil {
		return portfolio.Portfolio{}, fmt.Errorf("create portfolio %q: %w", name, err)
	}
	return p, nil
}

func (s *SQLite) DeletePortfolio(ctx context.Context, pid string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE portfolio_id = ?`, pid); err != nil {
		return fmt.Errorf("delete portfolio holdings %s: %w", pid, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, pid)
	if err != nil {
		return fmt.Errorf("delete portfolio %s: %w", pid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("portfolio %q: %w", pid, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Portfolio(ctx context.Context, pid string) (portfolio.Portfolio, bool, error) {
	var p portfolio.Portfolio
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM portfolios WHERE id = ?`, pid).
		Scan(&p.ID, &p.Name, &p.Description)
	if err == sql.ErrNoRows {
		return portfolio.Portfolio{}, false, nil
	}
	if err != nil {
		return portfolio.Portfolio{}, false, fmt.Errorf("portfolio %s: %w", pid, err)
	}
	return p, true, nil
}

func (s *SQLite) Portfolios(ctx context.Context, filter string) ([]portfolio.Portfolio, error) {
	query := `SELECT id, name, description FROM portfolios`
	var args []any
	if filter != "" {
		query += ` WHERE name LIKE ? OR description LIKE ?`
		pat := "%" + filter + "%"
		args = append(args, pat, pat)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var out []portfolio.Portfolio
	for rows.Next() {
		var p portfolio.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) BuySecurity(ctx context.Context, h portfolio.Holding) error {
	var sell any
	if !h.SellDate.IsZero() {
		sell = h.SellDate.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holdings (portfolio_id, symbol, type, volume, purchase_date, sell_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.PortfolioID, h.Ticker.Symbol, int(h.Ticker.Type), h.Volume, h.PurchaseDate.String(), sell)
	if err != nil {
		return fmt.Errorf("buy %s for %s: %w", h.Ticker, h.PortfolioID, err)
	}
	return nil
}

func (s *SQLite) SellSecurity(ctx context.Context, pid string, t market.Ticker, sellDate market.Date) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE holdings SET sell_date = ?
		WHERE portfolio_id = ? AND symbol = ? AND type = ? AND sell_date IS NULL`,
		sellDate.String(), pid, t.Symbol, int(t.Type))
	if err != nil {
		return fmt.Errorf("sell %s in %s: %w", t, pid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("open holding of %s in portfolio %q: %w", t, pid, ErrNotFound)
	}
	return nil
}

func (s *SQLite) DeleteSecurity(ctx context.Context, pid string, t market.Ticker) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM holdings WHERE portfolio_id = ? AND symbol = ? AND type = ?`,
		pid, t.Symbol, int(t.Type))
	if err != nil {
		return fmt.Errorf("delete %s from %s: %w", t, pid, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holding of %s in portfolio %q: %w", t, pid, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Securities(ctx context.Context, pid string) ([]portfolio.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT portfolio_id, symbol, type, volume, purchase_date, sell_date
		FROM holdings WHERE portfolio_id = ? ORDER BY purchase_date, symbol`,
		pid)
	if err != nil {
		return nil, fmt.Errorf("securities %s: %w", pid, err)
	}
	defer rows.Close()

	var out []portfolio.Holding
	for rows.Next() {
		var h portfolio.Holding
		var typ int
		var purchase string
		var sell sql.NullString
		if err := rows.Scan(&h.PortfolioID, &h.Ticker.Symbol, &typ, &h.Volume, &purchase, &sell); err != nil {
			return nil, err
		}
		h.Ticker.Type = market.TickerType(typ)
		if h.PurchaseDate, err = market.ParseDate(purchase); err != nil {
			return nil, err
		}
		if sell.Valid {
			if h.SellDate, err = market.ParseDate(sell.String); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
