package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/marketdata"
	"github.com/meenmo/capvol/vol"
)

// TaskInput defines the JSON input schema for one calibration task.
//
// Conventions:
// - quotes are decimal volatilities (0.36 means 36% Black, 0.0075 means 75bp
//   normal) or cap prices per unit notional for quote_type "price"
// - a null quote cell marks an absent quote
// - zero_rates are continuously compounded percent per tenor
type TaskInput struct {
	TaskID    string `json:"task_id,omitempty"`
	Valuation string `json:"valuation"`  // "2025-06-11"
	Index     string `json:"index"`      // e.g. "USD-LIBOR-3M"
	QuoteType string `json:"quote_type"` // black_vol, normal_vol or price

	Expiries []string     `json:"expiries"` // cap terminations, e.g. "1Y"
	Strikes  []float64    `json:"strikes"`
	Quotes   [][]*float64 `json:"quotes"`

	QuoteError float64     `json:"quote_error,omitempty"` // uniform quote error
	Errors     [][]float64 `json:"errors,omitempty"`      // or per-cell errors

	ZeroRates map[string]float64 `json:"zero_rates"`

	DayCount     string   `json:"day_count,omitempty"` // defaults to ACT/365F
	LambdaExpiry *float64 `json:"lambda_expiry,omitempty"`
	LambdaStrike *float64 `json:"lambda_strike,omitempty"`
	Shift        float64  `json:"shift,omitempty"`
}

type TaskOutput struct {
	TaskID      string      `json:"task_id,omitempty"`
	Valuation   string      `json:"valuation"`
	Convention  string      `json:"convention"`
	Shift       float64     `json:"shift"`
	Expiries    []float64   `json:"expiries"` // node expiries in years
	Strikes     []float64   `json:"strikes"`
	Vols        [][]float64 `json:"vols"` // one row per node expiry
	ChiSquare   float64     `json:"chi_square"`
	Iterations  int         `json:"iterations"`
	MaxRelError float64     `json:"max_rel_error"`
	Error       string      `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: capstrip -input <path>")
		fmt.Fprintln(os.Stderr, "Strip a caplet volatility surface from a JSON cap quote grid.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: capstrip -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]TaskOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, TaskOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}

	if hadError {
		os.Exit(1)
	}
}

func process(in TaskInput) (*TaskOutput, error) {
	valuation, err := time.Parse("2006-01-02", in.Valuation)
	if err != nil {
		return nil, fmt.Errorf("invalid valuation: %v", err)
	}
	qt, err := marketdata.ParseQuoteType(in.QuoteType)
	if err != nil {
		return nil, err
	}

	expiries := make([]market.Tenor, len(in.Expiries))
	for i, label := range in.Expiries {
		expiries[i] = market.Tenor(label)
	}
	quotes := make([][]float64, len(in.Quotes))
	for i, row := range in.Quotes {
		quotes[i] = make([]float64, len(row))
		for j, cell := range row {
			if cell == nil {
				quotes[i][j] = math.NaN()
				continue
			}
			quotes[i][j] = *cell
		}
	}
	errs := in.Errors
	if errs == nil {
		if in.QuoteError <= 0 {
			return nil, fmt.Errorf("quote_error must be positive when errors is omitted")
		}
		errs = make([][]float64, len(quotes))
		for i := range errs {
			errs[i] = make([]float64, len(in.Strikes))
			for j := range errs[i] {
				errs[i][j] = in.QuoteError
			}
		}
	}

	set := marketdata.QuoteSet{
		Name:      in.TaskID,
		Valuation: valuation,
		Index:     in.Index,
		QuoteType: qt,
		Expiries:  expiries,
		Strikes:   in.Strikes,
		Quotes:    quotes,
		Errors:    errs,
		ZeroRates: in.ZeroRates,
	}
	ix, err := set.IborIndex()
	if err != nil {
		return nil, err
	}
	rawData, err := set.RawData()
	if err != nil {
		return nil, err
	}
	cs, err := set.Curves(ix.Calendar)
	if err != nil {
		return nil, err
	}

	def := capfloor.Definition{
		Index:        ix,
		DayCount:     dayCountOrDefault(in.DayCount),
		LambdaExpiry: lambdaOrDefault(in.LambdaExpiry),
		LambdaStrike: lambdaOrDefault(in.LambdaStrike),
		Interp:       vol.Bilinear,
		Shift:        in.Shift,
	}
	res, err := capfloor.Calibrate(context.Background(), def, valuation, rawData, cs)
	if err != nil {
		return nil, err
	}

	surf := res.Surface
	nk := len(surf.Strikes())
	values := surf.Values()
	vols := make([][]float64, len(surf.Expiries()))
	for i := range vols {
		vols[i] = values[i*nk : (i+1)*nk]
	}
	maxRel := 0.0
	for _, f := range res.Fit {
		if f.RelError > maxRel {
			maxRel = f.RelError
		}
	}

	return &TaskOutput{
		TaskID:      in.TaskID,
		Valuation:   in.Valuation,
		Convention:  surf.Convention().String(),
		Shift:       surf.Shift(),
		Expiries:    surf.Expiries(),
		Strikes:     surf.Strikes(),
		Vols:        vols,
		ChiSquare:   res.ChiSquare,
		Iterations:  res.Iterations,
		MaxRelError: maxRel,
	}, nil
}

func dayCountOrDefault(dc string) string {
	if strings.TrimSpace(dc) == "" {
		return "ACT/365F"
	}
	return dc
}

func lambdaOrDefault(l *float64) float64 {
	if l == nil {
		return 0.01
	}
	return *l
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]TaskInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []TaskInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input TaskInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []TaskInput{input}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(TaskOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
