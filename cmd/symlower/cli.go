package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ExitError carries the process exit code for a failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

type mode string

const (
	modeEval     mode = "eval"
	modeJacobian mode = "jacobian"
	modePrint    mode = "print"
)

type config struct {
	path      string
	t         float64
	y         []float64
	inputs    map[string]float64
	outputs   []string
	mode      mode
	format    string
	logLevel  slog.Level
	logFormat string
	dump      bool
}

// inputFlag collects repeated -input name=value flags.
type inputFlag map[string]float64

func (f inputFlag) String() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(f[name], 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f inputFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("want name=value, got %q", s)
	}
	v, err := parseFinite(value)
	if err != nil {
		return fmt.Errorf("input %s: %w", name, err)
	}
	f[name] = v
	return nil
}

// parseFinite is strconv.ParseFloat without the inf and nan spellings.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// parseArgs returns a nil config when the program should exit cleanly.
func parseArgs(args []string, output io.Writer) (*config, error) {
	fs := flag.NewFlagSet("symlower", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
symlower - lowers model expression graphs to symbolic matrices.

Usage:
  symlower [options] MODEL_PATH

Arguments:
  MODEL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		fs.PrintDefaults()
	}

	inputs := inputFlag{}
	t := fs.Float64("t", 0, "Time to evaluate at.")
	y := fs.String("y", "", "Comma separated state vector.")
	fs.Var(inputs, "input", "Input value as name=value. May be repeated.")
	outputs := fs.String("output", "", "Comma separated outputs to lower. Default: all.")
	modeFlag := fs.String("mode", "eval", "What to print. Options: 'eval', 'jacobian', 'print'.")
	format := fs.String("format", "text", "Result format. Options: 'text' or 'json'.")
	logLevel := fs.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormat := fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	dump := fs.Bool("dump", false, "Print the loaded model and exit.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, usageError("expected exactly one MODEL_PATH, got %d", fs.NArg())
	}

	cfg := &config{
		path:      fs.Arg(0),
		t:         *t,
		inputs:    inputs,
		mode:      mode(strings.ToLower(*modeFlag)),
		format:    strings.ToLower(*format),
		logFormat: strings.ToLower(*logFormat),
		dump:      *dump,
	}

	switch cfg.mode {
	case modeEval, modeJacobian, modePrint:
	default:
		return nil, usageError("invalid mode: must be 'eval', 'jacobian' or 'print'")
	}
	if cfg.format != "text" && cfg.format != "json" {
		return nil, usageError("invalid format: must be 'text' or 'json'")
	}
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return nil, usageError("invalid log-format: must be 'text' or 'json'")
	}
	if math.IsNaN(cfg.t) || math.IsInf(cfg.t, 0) {
		return nil, usageError("invalid -t: %v is not a finite number", cfg.t)
	}
	if err := cfg.logLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if *y != "" {
		for _, field := range strings.Split(*y, ",") {
			v, err := parseFinite(strings.TrimSpace(field))
			if err != nil {
				return nil, usageError("invalid -y: %v", err)
			}
			cfg.y = append(cfg.y, v)
		}
	}
	if *outputs != "" {
		for _, name := range strings.Split(*outputs, ",") {
			cfg.outputs = append(cfg.outputs, strings.TrimSpace(name))
		}
	}
	return cfg, nil
}
