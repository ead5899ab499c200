package marketdata_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/marketdata"
)

func baseQuoteRows() [][]interface{} {
	return [][]interface{}{
		{"valuation", "2025-06-11"},
		{"index", "USD-LIBOR-3M"},
		{"quote_type", "black_vol"},
		{"error", 0.0001},
		{"expiry", 0.02, 0.03, 0.05},
		{"1Y", 0.36, 0.41, ""},
		{"2Y", "", 0.38, 0.50},
		{"5Y", 0.32, 0.34, 0.41},
	}
}

func baseCurveRows() [][]interface{} {
	return [][]interface{}{
		{"tenor", "rate"},
		{"6M", 4.25},
		{"1Y", 4.05},
		{"2Y", 3.82},
		{"3Y", 3.75},
		{"5Y", 3.78},
		{"7Y", 3.85},
	}
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
}

// buildWorkbook saves a calibration workbook into a temp dir. A nil curve or
// errs slice leaves that sheet out.
func buildWorkbook(t *testing.T, quotes, curve, errs [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "quotes"))
	writeRows(t, f, "quotes", quotes)
	if curve != nil {
		_, err := f.NewSheet("curve")
		require.NoError(t, err)
		writeRows(t, f, "curve", curve)
	}
	if errs != nil {
		_, err := f.NewSheet("errors")
		require.NoError(t, err)
		writeRows(t, f, "errors", errs)
	}
	path := filepath.Join(t.TempDir(), "caps.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()

	path := buildWorkbook(t, baseQuoteRows(), baseCurveRows(), nil)
	set, err := marketdata.LoadXLSX(path)
	require.NoError(t, err)

	assert.Equal(t, path, set.Name)
	assert.Equal(t, "2025-06-11", set.Valuation.Format("2006-01-02"))
	assert.Equal(t, "USD-LIBOR-3M", set.Index)
	assert.Equal(t, capfloor.BlackVolatility, set.QuoteType)
	assert.Equal(t, []market.Tenor{"1Y", "2Y", "5Y"}, set.Expiries)
	assert.Equal(t, []float64{0.02, 0.03, 0.05}, set.Strikes)

	require.Len(t, set.Quotes, 3)
	assert.Equal(t, 0.36, set.Quotes[0][0])
	assert.True(t, math.IsNaN(set.Quotes[0][2]), "trailing blank cell")
	assert.True(t, math.IsNaN(set.Quotes[1][0]), "interior blank cell")
	assert.Equal(t, 0.50, set.Quotes[1][2])
	for _, row := range set.Errors {
		for _, e := range row {
			assert.Equal(t, 0.0001, e)
		}
	}

	require.Len(t, set.ZeroRates, 6)
	assert.Equal(t, 4.05, set.ZeroRates["1Y"])

	raw, err := set.RawData()
	require.NoError(t, err)
	assert.False(t, raw.Present(0, 2))
	assert.False(t, raw.Present(1, 0))
	assert.Equal(t, 0.41, raw.Quote(0, 1))
}

func TestLoadXLSXErrorSheet(t *testing.T) {
	t.Parallel()

	errs := [][]interface{}{
		{"expiry", 0.02, 0.03, 0.05},
		{"1Y", 0.0001, 0.0002, 0.0003},
		{"2Y", 0.0002, 0.0002, 0.0002},
		{"5Y", 0.0001, 0.0001, 0.0002},
	}
	path := buildWorkbook(t, baseQuoteRows(), baseCurveRows(), errs)
	set, err := marketdata.LoadXLSX(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0002, set.Errors[0][1])
	assert.Equal(t, 0.0002, set.Errors[2][2])

	_, err = set.RawData()
	assert.NoError(t, err)
}

func TestLoadXLSXQuoteSheetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(q [][]interface{}) [][]interface{}
		wantSub string
	}{
		{
			name:    "missing valuation",
			mutate:  func(q [][]interface{}) [][]interface{} { return q[1:] },
			wantSub: "missing the valuation",
		},
		{
			name: "bad valuation",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[0] = []interface{}{"valuation", "June 11"}
				return q
			},
			wantSub: "row 1",
		},
		{
			name: "missing quote type",
			mutate: func(q [][]interface{}) [][]interface{} {
				return append(q[:2:2], q[3:]...)
			},
			wantSub: "missing the quote type",
		},
		{
			name: "unknown quote type",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[2] = []interface{}{"quote_type", "vol"}
				return q
			},
			wantSub: "unknown quote type",
		},
		{
			name: "unknown key",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[1] = []interface{}{"region", "US"}
				return q
			},
			wantSub: `unknown key "region"`,
		},
		{
			name:    "no header row",
			mutate:  func(q [][]interface{}) [][]interface{} { return q[:4] },
			wantSub: "no expiry header",
		},
		{
			name: "bad strike header",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[4] = []interface{}{"expiry", "low", 0.03}
				return q
			},
			wantSub: "bad strike header",
		},
		{
			name: "no strikes",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[4] = []interface{}{"expiry"}
				return q
			},
			wantSub: "no strikes",
		},
		{
			name:    "no quote rows",
			mutate:  func(q [][]interface{}) [][]interface{} { return q[:5] },
			wantSub: "no expiry rows",
		},
		{
			name: "bad tenor",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[5] = []interface{}{"soon", 0.3, 0.3, 0.3}
				return q
			},
			wantSub: "bad tenor",
		},
		{
			name: "bad quote cell",
			mutate: func(q [][]interface{}) [][]interface{} {
				q[6] = []interface{}{"2Y", "n/a", 0.38, 0.50}
				return q
			},
			wantSub: `bad value "n/a"`,
		},
		{
			name: "uniform error missing",
			mutate: func(q [][]interface{}) [][]interface{} {
				return append(q[:3:3], q[4:]...)
			},
			wantSub: "positive error value",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := buildWorkbook(t, tt.mutate(baseQuoteRows()), baseCurveRows(), nil)
			_, err := marketdata.LoadXLSX(path)
			assert.ErrorContains(t, err, tt.wantSub)
		})
	}
}

func TestLoadXLSXCurveSheetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		curve   [][]interface{}
		wantSub string
	}{
		{
			name:    "missing curve sheet",
			curve:   nil,
			wantSub: "curve",
		},
		{
			name: "bad zero rate",
			curve: [][]interface{}{
				{"1Y", "four"},
			},
			wantSub: "bad zero rate",
		},
		{
			name: "header only",
			curve: [][]interface{}{
				{"tenor", "rate"},
			},
			wantSub: "no zero rates",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := buildWorkbook(t, baseQuoteRows(), tt.curve, nil)
			_, err := marketdata.LoadXLSX(path)
			assert.ErrorContains(t, err, tt.wantSub)
		})
	}
}

func TestLoadXLSXErrorSheetMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		errs    [][]interface{}
		wantSub string
	}{
		{
			name: "row count",
			errs: [][]interface{}{
				{"expiry", 0.02, 0.03, 0.05},
				{"1Y", 0.0001, 0.0001, 0.0001},
			},
			wantSub: "1 rows for 3 expiries",
		},
		{
			name: "tenor order",
			errs: [][]interface{}{
				{"expiry", 0.02, 0.03, 0.05},
				{"2Y", 0.0001, 0.0001, 0.0001},
				{"1Y", 0.0001, 0.0001, 0.0001},
				{"5Y", 0.0001, 0.0001, 0.0001},
			},
			wantSub: "expects expiry 1Y",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := buildWorkbook(t, baseQuoteRows(), baseCurveRows(), tt.errs)
			_, err := marketdata.LoadXLSX(path)
			assert.ErrorContains(t, err, tt.wantSub)
		})
	}
}

func TestLoadXLSXMissingFile(t *testing.T) {
	t.Parallel()

	_, err := marketdata.LoadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.ErrorContains(t, err, "open workbook")
}
