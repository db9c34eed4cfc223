package symlower

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/internal/ctxlog"
	"github.com/njchilds90/symlower/sx"
)

// Evaluate lowers root with numeric bindings and folds the result to
// numbers in row-major order. A nil y leaves the state unbound.
func Evaluate(root expr.Node, t float64, y []float64, inputs map[string]float64, opts ...Option) ([]float64, error) {
	b, err := NumericBindings(t, y, inputs)
	if err != nil {
		return nil, err
	}
	m, err := Lower(root, b, opts...)
	if err != nil {
		return nil, err
	}
	return m.Evaluate()
}

// LowerEach lowers root once per binding set, concurrently, each in its own
// session. The results are in the order of bindings. The first failure
// cancels the remaining passes that have not started.
//
// Sessions log to the logger carried by ctx unless opts set one. Every
// session gets the same opts, so an Observer passed here is called from
// several goroutines at once and must be safe for concurrent use.
func LowerEach(ctx context.Context, root expr.Node, bindings []Bindings, opts ...Option) ([]*sx.Matrix, error) {
	logger := ctxlog.FromContext(ctx)
	opts = append([]Option{WithLogger(logger)}, opts...)

	out := make([]*sx.Matrix, len(bindings))
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range bindings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := NewSession(b, opts...).Lower(root)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug("lowering batch failed", "bindings", len(bindings), "error", err)
		return nil, err
	}
	logger.Debug("lowered batch", "bindings", len(bindings))
	return out, nil
}
