package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree once with captured output. Flag values stick
// between runs, so every test passes its flags explicitly.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFixturesCommand(t *testing.T) {
	out, err := execute(t, "fixtures")
	require.NoError(t, err)

	assert.Contains(t, out, "usd-black-2025-06-11")
	assert.Contains(t, out, "usd-normal-2025-06-11")
	assert.Contains(t, out, "black_vol")
	assert.Contains(t, out, "normal_vol")
	assert.Contains(t, out, "6x6")
}

func TestCalibrateFixture(t *testing.T) {
	out, err := execute(t, "calibrate", "--source", "fixture", "--set", "usd-normal-2025-06-11")
	require.NoError(t, err)

	assert.Contains(t, out, "quote set   usd-normal-2025-06-11")
	assert.Contains(t, out, "convention  NORMAL")
	assert.Contains(t, out, "caplet volatility nodes")
	assert.Contains(t, out, "quote repricing")
}

func TestCalibrateUnknownFixture(t *testing.T) {
	_, err := execute(t, "calibrate", "--source", "fixture", "--set", "usd-black-1999-01-01")
	assert.ErrorContains(t, err, "unknown fixture")
}

func TestCalibrateXLSXNeedsFile(t *testing.T) {
	_, err := execute(t, "calibrate", "--source", "xlsx", "--file", "")
	assert.ErrorContains(t, err, "--file")
}

func TestCalibrateUnknownSource(t *testing.T) {
	_, err := execute(t, "calibrate", "--source", "csv", "--set", "usd-black-2025-06-11")
	assert.ErrorContains(t, err, `unknown source "csv"`)
}

func TestCalibratePGNeedsDSN(t *testing.T) {
	_, err := execute(t, "calibrate", "--source", "pg", "--set", "usd-black-2025-06-11")
	assert.ErrorContains(t, err, "database.dsn")
}

func TestBatchFixtures(t *testing.T) {
	out, err := execute(t, "batch", "--source", "fixture",
		"usd-black-2025-06-11", "usd-normal-2025-06-11")
	require.NoError(t, err)

	assert.Contains(t, out, "chi-square")
	assert.Contains(t, out, "usd-black-2025-06-11")
	assert.Contains(t, out, "usd-normal-2025-06-11")
	assert.NotContains(t, out, "failed")
}

func TestBatchReportsFailures(t *testing.T) {
	out, err := execute(t, "batch", "--source", "fixture",
		"usd-black-2025-06-11", "usd-black-1999-01-01")
	assert.ErrorContains(t, err, "1 of 2 quote sets failed")
	assert.Contains(t, out, "failed: unknown fixture")
}

func TestSurfaceNeedsDSN(t *testing.T) {
	_, err := execute(t, "surface", "--set", "usd-black-2025-06-11")
	assert.ErrorContains(t, err, "database.dsn")
}

func TestSurfacePointLookupNeedsBothFlags(t *testing.T) {
	_, err := execute(t, "surface", "--set", "usd-black-2025-06-11", "--expiry", "2.0")
	assert.ErrorContains(t, err, "--strike")
}
