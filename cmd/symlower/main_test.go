package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `
state "c" { slices = [[0, 2]] }
input "k" {}
output "scaled" { expr = input.k * state.c * state.c }
output "clock" { expr = t + 1 }
`

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.hcl")
	require.NoError(t, os.WriteFile(path, []byte(testModel), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	err := run(context.Background(), &out, &logs, args)
	return out.String(), logs.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "want ExitError, got %v", err)
	assert.Equal(t, code, exitErr.Code)
}

func TestRun_Help(t *testing.T) {
	t.Parallel()
	out, _, err := runCLI(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()
	path := writeModel(t)
	cases := map[string][]string{
		"no path":        {},
		"bad mode":       {"-mode", "integrate", path},
		"bad format":     {"-format", "yaml", path},
		"bad log level":  {"-log-level", "loud", path},
		"bad log format": {"-log-format", "xml", path},
		"bad y":          {"-y", "1,x", path},
		"bad input":      {"-input", "k", path},
		"unknown output": {"-output", "nope", path},
		"short y":        {"-y", "1", path},
		"infinite y":     {"-y", "1,inf", path},
		"nan t":          {"-t", "nan", "-y", "1,1", path},
		"infinite input": {"-input", "k=-Inf", path},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := runCLI(t, args...)
			requireExitCode(t, err, 2)
		})
	}
}

func TestRun_Eval(t *testing.T) {
	t.Parallel()
	out, _, err := runCLI(t, "-t", "2", "-y", "1,3", "-input", "k=2", writeModel(t))
	require.NoError(t, err)
	assert.Equal(t, "scaled (2x1)\n  2\n  18\nclock (1x1)\n  3\n", out)
}

func TestRun_Jacobian(t *testing.T) {
	t.Parallel()
	out, _, err := runCLI(t, "-mode", "jacobian", "-y", "1,3", "-input", "k=2", "-output", "scaled", writeModel(t))
	require.NoError(t, err)
	assert.Equal(t, "scaled (2x2)\n  4 0\n  0 12\n", out)
}

func TestRun_JSON(t *testing.T) {
	t.Parallel()
	out, _, err := runCLI(t, "-format", "json", "-y", "1,3", "-input", "k=1", "-output", "scaled,clock", writeModel(t))
	require.NoError(t, err)

	var results []result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "scaled", results[0].Name)
	assert.Equal(t, []float64{1, 9}, results[0].Values)
	assert.Equal(t, []float64{1}, results[1].Values)
}

func TestRun_Print(t *testing.T) {
	t.Parallel()
	path := writeModel(t)

	out, _, err := runCLI(t, "-mode", "print", "-output", "clock", path)
	require.NoError(t, err)
	assert.Contains(t, out, "clock = ")
	assert.Contains(t, out, "t")

	out, _, err = runCLI(t, "-mode", "print", "-format", "json", "-output", "scaled", path)
	require.NoError(t, err)
	var results []result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Rows)
	assert.Contains(t, string(results[0].Expr), `"entries"`)
}

func TestRun_Dump(t *testing.T) {
	t.Parallel()
	out, _, err := runCLI(t, "-dump", writeModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "StateSize")
	assert.Contains(t, out, "scaled")
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl files")

	// Without -y the state is unbound.
	_, _, err = runCLI(t, "-input", "k=1", "-output", "scaled", writeModel(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output scaled")
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestRun_Logs(t *testing.T) {
	t.Parallel()
	_, logs, err := runCLI(t, "-log-level", "debug", "-log-format", "json", "-y", "1,1", "-input", "k=1", writeModel(t))
	require.NoError(t, err)
	assert.Contains(t, logs, `"msg":"model built"`)
	assert.Contains(t, logs, `"msg":"lowered graph"`)
}
