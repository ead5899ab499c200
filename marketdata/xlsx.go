package marketdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/utils"
)

// Workbook layout. The "quotes" sheet starts with key/value metadata rows
// (valuation, index, quote_type, error), followed by a header row whose
// first cell is "expiry" and whose remaining cells are the strikes, then
// one row per cap expiry with the quotes. Blank quote cells mark absent
// quotes. The "curve" sheet holds tenor/zero-rate pairs in percent. An
// optional "errors" sheet mirrors the quote grid with per-quote errors;
// without it the uniform "error" metadata value applies.
const (
	quoteSheet = "quotes"
	curveSheet = "curve"
	errorSheet = "errors"
)

// LoadXLSX reads a calibration workbook into a quote set.
func LoadXLSX(path string) (QuoteSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(quoteSheet)
	if err != nil {
		return QuoteSet{}, fmt.Errorf("marketdata: sheet %q: %w", quoteSheet, err)
	}

	set := QuoteSet{Name: path}
	uniformErr := 0.0
	header := -1
	sawType := false

meta:
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0]))
		switch key {
		case "":
			continue
		case "valuation":
			d, err := utils.ParseDate(cellAt(row, 1))
			if err != nil {
				return QuoteSet{}, fmt.Errorf("marketdata: %s row %d: %w", quoteSheet, i+1, err)
			}
			set.Valuation = d
		case "index":
			set.Index = cellAt(row, 1)
		case "quote_type":
			qt, err := ParseQuoteType(cellAt(row, 1))
			if err != nil {
				return QuoteSet{}, fmt.Errorf("marketdata: %s row %d: %w", quoteSheet, i+1, err)
			}
			set.QuoteType = qt
			sawType = true
		case "error":
			v, err := strconv.ParseFloat(cellAt(row, 1), 64)
			if err != nil {
				return QuoteSet{}, fmt.Errorf("marketdata: %s row %d: bad error value %q", quoteSheet, i+1, cellAt(row, 1))
			}
			uniformErr = v
		case "expiry":
			header = i
			break meta
		default:
			return QuoteSet{}, fmt.Errorf("marketdata: %s row %d: unknown key %q", quoteSheet, i+1, key)
		}
	}
	if header < 0 {
		return QuoteSet{}, fmt.Errorf("marketdata: sheet %q has no expiry header row", quoteSheet)
	}
	if set.Valuation.IsZero() {
		return QuoteSet{}, fmt.Errorf("marketdata: sheet %q is missing the valuation date", quoteSheet)
	}
	if !sawType {
		return QuoteSet{}, fmt.Errorf("marketdata: sheet %q is missing the quote type", quoteSheet)
	}

	strikes, err := parseStrikes(rows[header])
	if err != nil {
		return QuoteSet{}, err
	}
	set.Strikes = strikes
	set.Expiries, set.Quotes, err = parseGrid(rows[header+1:], len(strikes), quoteSheet, header+1)
	if err != nil {
		return QuoteSet{}, err
	}

	if errRows, err := f.GetRows(errorSheet); err == nil {
		if len(errRows) < 2 {
			return QuoteSet{}, fmt.Errorf("marketdata: sheet %q needs a header row and expiry rows", errorSheet)
		}
		tenors, grid, err := parseGrid(errRows[1:], len(strikes), errorSheet, 1)
		if err != nil {
			return QuoteSet{}, err
		}
		if len(tenors) != len(set.Expiries) {
			return QuoteSet{}, fmt.Errorf("marketdata: sheet %q has %d rows for %d expiries",
				errorSheet, len(tenors), len(set.Expiries))
		}
		for i, tenor := range tenors {
			if tenor != set.Expiries[i] {
				return QuoteSet{}, fmt.Errorf("marketdata: sheet %q row %d expects expiry %s, got %s",
					errorSheet, i+2, set.Expiries[i], tenor)
			}
		}
		set.Errors = grid
	} else {
		if uniformErr <= 0 {
			return QuoteSet{}, fmt.Errorf("marketdata: workbook needs an %q sheet or a positive error value", errorSheet)
		}
		set.Errors = uniformErrors(len(set.Expiries), len(strikes), uniformErr)
	}

	set.ZeroRates, err = parseCurveSheet(f)
	if err != nil {
		return QuoteSet{}, err
	}
	return set, nil
}

func cellAt(row []string, j int) string {
	if j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

func parseStrikes(header []string) ([]float64, error) {
	var strikes []float64
	for j := 1; j < len(header); j++ {
		cell := strings.TrimSpace(header[j])
		if cell == "" {
			break
		}
		k, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("marketdata: bad strike header %q", cell)
		}
		strikes = append(strikes, k)
	}
	if len(strikes) == 0 {
		return nil, fmt.Errorf("marketdata: expiry header row has no strikes")
	}
	return strikes, nil
}

// parseGrid reads tenor-labeled rows into a NaN-padded rectangular grid.
// Short and blank cells are absent quotes; GetRows trims trailing empties,
// so padding is the norm rather than the exception.
func parseGrid(rows [][]string, nStrikes int, sheet string, offset int) ([]market.Tenor, [][]float64, error) {
	var tenors []market.Tenor
	var grid [][]float64
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		tenor := market.Tenor(strings.TrimSpace(row[0]))
		if tenor.Months() <= 0 {
			return nil, nil, fmt.Errorf("marketdata: %s row %d: bad tenor %q", sheet, offset+i+1, row[0])
		}
		vals := make([]float64, nStrikes)
		for j := 0; j < nStrikes; j++ {
			cell := cellAt(row, j+1)
			if cell == "" {
				vals[j] = nan
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("marketdata: %s row %d: bad value %q", sheet, offset+i+1, cell)
			}
			vals[j] = v
		}
		tenors = append(tenors, tenor)
		grid = append(grid, vals)
	}
	if len(tenors) == 0 {
		return nil, nil, fmt.Errorf("marketdata: sheet %q has no expiry rows", sheet)
	}
	return tenors, grid, nil
}

func parseCurveSheet(f *excelize.File) (map[string]float64, error) {
	rows, err := f.GetRows(curveSheet)
	if err != nil {
		return nil, fmt.Errorf("marketdata: sheet %q: %w", curveSheet, err)
	}
	rates := make(map[string]float64)
	for i, row := range rows {
		tenor := cellAt(row, 0)
		if tenor == "" || strings.EqualFold(tenor, "tenor") {
			continue
		}
		v, err := strconv.ParseFloat(cellAt(row, 1), 64)
		if err != nil {
			return nil, fmt.Errorf("marketdata: %s row %d: bad zero rate %q", curveSheet, i+1, cellAt(row, 1))
		}
		rates[tenor] = v
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("marketdata: sheet %q has no zero rates", curveSheet)
	}
	return rates, nil
}
