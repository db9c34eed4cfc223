// Command symlower loads an HCL model and lowers its outputs.
//
// Usage:
//
//	symlower -t 0.5 -y 1,2,3 -input current=2 model.hcl
//	symlower -mode jacobian -y 1,2,3 -format json models/
//	symlower -mode print model.hcl
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/kr/pretty"

	"github.com/njchilds90/symlower"
	"github.com/njchilds90/symlower/internal/ctxlog"
	"github.com/njchilds90/symlower/model"
	"github.com/njchilds90/symlower/sx"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, err := parseArgs(args, outW)
	if err != nil || cfg == nil {
		return err
	}

	logger := newLogger(logW, cfg.logLevel, cfg.logFormat)
	ctx = ctxlog.WithLogger(ctx, logger)

	m, err := model.Load(ctx, cfg.path)
	if err != nil {
		return err
	}
	if cfg.dump {
		_, err := pretty.Fprintf(outW, "%# v\n", dumpOf(m))
		return err
	}

	outputs, err := selectOutputs(m, cfg.outputs)
	if err != nil {
		return err
	}
	if cfg.mode != modePrint && len(cfg.y) != 0 && len(cfg.y) < m.StateSize {
		return usageError("-y has %d values but the model state has %d rows", len(cfg.y), m.StateSize)
	}

	results := make([]result, 0, len(outputs))
	for _, o := range outputs {
		logger.Debug("lowering output", "output", o.Name, "mode", cfg.mode)
		r, err := lowerOutput(ctx, cfg, m, o)
		if err != nil {
			return fmt.Errorf("output %s: %w", o.Name, err)
		}
		results = append(results, r)
	}
	return write(outW, cfg, results)
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func selectOutputs(m *model.Model, names []string) ([]model.Output, error) {
	if len(names) == 0 {
		return m.Outputs, nil
	}
	out := make([]model.Output, 0, len(names))
	for _, name := range names {
		n, ok := m.Output(name)
		if !ok {
			return nil, usageError("unknown output %q, have %v", name, m.OutputNames())
		}
		out = append(out, model.Output{Name: name, Node: n})
	}
	return out, nil
}

func lowerOutput(ctx context.Context, cfg *config, m *model.Model, o model.Output) (result, error) {
	opts := []symlower.Option{symlower.WithLogger(ctxlog.FromContext(ctx))}
	r := result{Name: o.Name}

	switch cfg.mode {
	case modePrint:
		lowered, err := symlower.Lower(o.Node, symlower.SymbolicBindings(m.StateSize, m.Inputs), opts...)
		if err != nil {
			return r, err
		}
		r.Rows, r.Cols = lowered.Rows(), lowered.Cols()
		r.matrix = lowered
		return r, nil

	case modeJacobian:
		b, err := symlower.NumericBindings(cfg.t, nil, cfg.inputs)
		if err != nil {
			return r, err
		}
		y := sx.MatSym("y", max(m.StateSize, 1), 1)
		b.State = y
		lowered, err := symlower.Lower(o.Node, b, opts...)
		if err != nil {
			return r, err
		}
		jac, err := sx.Jacobian(lowered, y)
		if err != nil {
			return r, err
		}
		env := make(map[string]sx.Expr, y.Len())
		for i := range y.Len() {
			v := 0.0
			if i < len(cfg.y) {
				v = cfg.y[i]
			}
			env[y.At(i).(*sx.Sym).Name()] = sx.NFloat(v)
		}
		jac = jac.Subs(env)
		values, err := jac.Evaluate()
		if err != nil {
			return r, err
		}
		r.Rows, r.Cols, r.Values = jac.Rows(), jac.Cols(), values
		return r, nil
	}

	var y []float64
	if len(cfg.y) > 0 {
		y = cfg.y
	}
	b, err := symlower.NumericBindings(cfg.t, y, cfg.inputs)
	if err != nil {
		return r, err
	}
	lowered, err := symlower.Lower(o.Node, b, opts...)
	if err != nil {
		return r, err
	}
	values, err := lowered.Evaluate()
	if err != nil {
		return r, err
	}
	r.Rows, r.Cols, r.Values = lowered.Rows(), lowered.Cols(), values
	return r, nil
}

// modelDump is the -dump view of a model.
type modelDump struct {
	Files     []string
	StateSize int
	States    map[string]string
	Inputs    []string
	Variables []string
	Functions []string
	Outputs   map[string]string
}

func dumpOf(m *model.Model) modelDump {
	d := modelDump{
		Files:     m.Files,
		StateSize: m.StateSize,
		States:    make(map[string]string, len(m.States)),
		Inputs:    m.Inputs,
		Variables: m.VariableNames(),
		Outputs:   make(map[string]string, len(m.Outputs)),
	}
	for name, s := range m.States {
		d.States[name] = s.String()
	}
	for name := range m.Functions {
		d.Functions = append(d.Functions, name)
	}
	for name := range m.Interpolants {
		d.Functions = append(d.Functions, name)
	}
	slices.Sort(d.Functions)
	for _, o := range m.Outputs {
		d.Outputs[o.Name] = o.Node.String()
	}
	return d
}
