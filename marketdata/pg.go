package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	_ "github.com/lib/pq"

	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/vol"
)

// Store loads quote sets from and writes calibrated surfaces to Postgres.
//
// Expected schema:
//
//	cap_quote_sets (name text primary key, valuation date, index_name text, quote_type text)
//	cap_quotes     (set_name text, expiry text, strike double precision,
//	                quote double precision, quote_error double precision)
//	cap_zero_rates (set_name text, tenor text, rate double precision)  -- percent
//	cap_surfaces   (set_name text, created_at timestamptz, convention text,
//	                shift double precision, expiry double precision,
//	                strike double precision, vol double precision)
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("marketdata: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("marketdata: ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// QuoteSet loads a named quote set with its quotes and zero rates.
func (s *Store) QuoteSet(ctx context.Context, name string) (QuoteSet, error) {
	set := QuoteSet{Name: name}
	var label string
	err := s.db.QueryRowContext(ctx,
		`SELECT valuation, index_name, quote_type FROM cap_quote_sets WHERE name = $1`, name).
		Scan(&set.Valuation, &set.Index, &label)
	if errors.Is(err, sql.ErrNoRows) {
		return QuoteSet{}, fmt.Errorf("marketdata: unknown quote set %q", name)
	}
	if err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: load quote set %q: %w", name, err)
	}
	if set.QuoteType, err = ParseQuoteType(label); err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: quote set %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expiry, strike, quote, quote_error FROM cap_quotes WHERE set_name = $1`, name)
	if err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: load quotes for %q: %w", name, err)
	}
	defer rows.Close()
	var quotes []quoteCell
	for rows.Next() {
		var q quoteCell
		if err := rows.Scan(&q.expiry, &q.strike, &q.quote, &q.err); err != nil {
			return QuoteSet{}, fmt.Errorf("marketdata: scan quote for %q: %w", name, err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: load quotes for %q: %w", name, err)
	}
	set.Expiries, set.Strikes, set.Quotes, set.Errors, err = pivotQuotes(quotes)
	if err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: quote set %q: %w", name, err)
	}

	if set.ZeroRates, err = s.zeroRates(ctx, name); err != nil {
		return QuoteSet{}, err
	}
	return set, nil
}

func (s *Store) zeroRates(ctx context.Context, name string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tenor, rate FROM cap_zero_rates WHERE set_name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("marketdata: load zero rates for %q: %w", name, err)
	}
	defer rows.Close()
	rates := make(map[string]float64)
	for rows.Next() {
		var tenor string
		var rate float64
		if err := rows.Scan(&tenor, &rate); err != nil {
			return nil, fmt.Errorf("marketdata: scan zero rate for %q: %w", name, err)
		}
		rates[tenor] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketdata: load zero rates for %q: %w", name, err)
	}
	return rates, nil
}

// SaveSurface writes the node grid of a calibrated surface in one transaction.
func (s *Store) SaveSurface(ctx context.Context, name string, asOf time.Time, surf *vol.Surface) error {
	if surf == nil {
		return fmt.Errorf("marketdata: nil surface for %q", name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("marketdata: begin surface tx: %w", err)
	}
	defer tx.Rollback()
	const insert = `INSERT INTO cap_surfaces
		(set_name, created_at, convention, shift, expiry, strike, vol)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := 0; i < surf.ParameterCount(); i++ {
		t, k := surf.Node(i)
		_, err := tx.ExecContext(ctx, insert,
			name, asOf, surf.Convention().String(), surf.Shift(), t, k, surf.Parameter(i))
		if err != nil {
			return fmt.Errorf("marketdata: insert surface node for %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("marketdata: commit surface for %q: %w", name, err)
	}
	return nil
}

// LoadSurface reads the most recently saved surface for a quote set back and
// rebuilds it with the given interpolation.
func (s *Store) LoadSurface(ctx context.Context, name string, interp vol.Interp2D) (*vol.Surface, error) {
	var label string
	var shift float64
	err := s.db.QueryRowContext(ctx,
		`SELECT convention, shift FROM cap_surfaces
		 WHERE set_name = $1 ORDER BY created_at DESC LIMIT 1`, name).
		Scan(&label, &shift)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("marketdata: no saved surface for %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("marketdata: load surface for %q: %w", name, err)
	}
	conv, err := vol.ParseConvention(label)
	if err != nil {
		return nil, fmt.Errorf("marketdata: surface for %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expiry, strike, vol FROM cap_surfaces
		 WHERE set_name = $1
		   AND created_at = (SELECT max(created_at) FROM cap_surfaces WHERE set_name = $1)`, name)
	if err != nil {
		return nil, fmt.Errorf("marketdata: load surface nodes for %q: %w", name, err)
	}
	defer rows.Close()
	var nodes []nodeCell
	for rows.Next() {
		var n nodeCell
		if err := rows.Scan(&n.expiry, &n.strike, &n.vol); err != nil {
			return nil, fmt.Errorf("marketdata: scan surface node for %q: %w", name, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketdata: load surface nodes for %q: %w", name, err)
	}

	expiries, strikes, values, err := pivotNodes(nodes)
	if err != nil {
		return nil, fmt.Errorf("marketdata: surface for %q: %w", name, err)
	}
	surf, err := vol.NewSurface(conv, shift, expiries, strikes, values, interp)
	if err != nil {
		return nil, fmt.Errorf("marketdata: surface for %q: %w", name, err)
	}
	return surf, nil
}

type quoteCell struct {
	expiry market.Tenor
	strike float64
	quote  float64
	err    float64
}

type nodeCell struct {
	expiry float64
	strike float64
	vol    float64
}

// pivotQuotes arranges row-per-quote records into the rectangular grid the
// calibration input expects. Cells with no record stay NaN.
func pivotQuotes(cells []quoteCell) ([]market.Tenor, []float64, [][]float64, [][]float64, error) {
	if len(cells) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("no quotes")
	}

	expirySet := make(map[market.Tenor]bool)
	strikeSet := make(map[float64]bool)
	for _, c := range cells {
		if c.expiry.Months() <= 0 {
			return nil, nil, nil, nil, fmt.Errorf("bad expiry tenor %q", c.expiry)
		}
		expirySet[c.expiry] = true
		strikeSet[c.strike] = true
	}
	expiries := make([]market.Tenor, 0, len(expirySet))
	for t := range expirySet {
		expiries = append(expiries, t)
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Months() < expiries[j].Months() })
	strikes := make([]float64, 0, len(strikeSet))
	for k := range strikeSet {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	row := make(map[market.Tenor]int, len(expiries))
	for i, t := range expiries {
		row[t] = i
	}
	col := make(map[float64]int, len(strikes))
	for j, k := range strikes {
		col[k] = j
	}

	quotes := make([][]float64, len(expiries))
	errs := make([][]float64, len(expiries))
	for i := range quotes {
		quotes[i] = make([]float64, len(strikes))
		errs[i] = make([]float64, len(strikes))
		for j := range quotes[i] {
			quotes[i][j] = nan
			errs[i][j] = nan
		}
	}
	seen := make(map[[2]int]bool, len(cells))
	for _, c := range cells {
		i, j := row[c.expiry], col[c.strike]
		if seen[[2]int{i, j}] {
			return nil, nil, nil, nil, fmt.Errorf("duplicate quote at %s / %g", c.expiry, c.strike)
		}
		seen[[2]int{i, j}] = true
		quotes[i][j] = c.quote
		errs[i][j] = c.err
	}
	return expiries, strikes, quotes, errs, nil
}

// pivotNodes arranges row-per-node records into sorted axes and row-major
// values. Saved surfaces are complete grids, so every axis cell must have
// exactly one node.
func pivotNodes(cells []nodeCell) ([]float64, []float64, []float64, error) {
	if len(cells) == 0 {
		return nil, nil, nil, fmt.Errorf("no surface nodes")
	}
	expirySet := make(map[float64]bool)
	strikeSet := make(map[float64]bool)
	for _, c := range cells {
		expirySet[c.expiry] = true
		strikeSet[c.strike] = true
	}
	expiries := make([]float64, 0, len(expirySet))
	for t := range expirySet {
		expiries = append(expiries, t)
	}
	sort.Float64s(expiries)
	strikes := make([]float64, 0, len(strikeSet))
	for k := range strikeSet {
		strikes = append(strikes, k)
	}
	sort.Float64s(strikes)

	row := make(map[float64]int, len(expiries))
	for i, t := range expiries {
		row[t] = i
	}
	col := make(map[float64]int, len(strikes))
	for j, k := range strikes {
		col[k] = j
	}

	values := make([]float64, len(expiries)*len(strikes))
	for i := range values {
		values[i] = nan
	}
	for _, c := range cells {
		idx := row[c.expiry]*len(strikes) + col[c.strike]
		if !math.IsNaN(values[idx]) {
			return nil, nil, nil, fmt.Errorf("duplicate surface node at (%g, %g)", c.expiry, c.strike)
		}
		values[idx] = c.vol
	}
	for idx, v := range values {
		if math.IsNaN(v) {
			return nil, nil, nil, fmt.Errorf("surface grid is missing node (%g, %g)",
				expiries[idx/len(strikes)], strikes[idx%len(strikes)])
		}
	}
	return expiries, strikes, values, nil
}
