package symlower

import (
	"fmt"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/sx"
)

func (s *Session) lower(n expr.Node) (*sx.Matrix, error) {
	id := n.ID()
	if m, ok := s.cache.get(id); ok {
		if s.observer != nil {
			s.observer(n, true)
		}
		return m, nil
	}
	m, err := s.dispatch(n)
	if err != nil {
		return nil, err
	}
	s.cache.put(id, m)
	if s.observer != nil {
		s.observer(n, false)
	}
	return m, nil
}

func (s *Session) lowerAll(nodes []expr.Node) ([]*sx.Matrix, error) {
	out := make([]*sx.Matrix, len(nodes))
	for i, n := range nodes {
		m, err := s.lower(n)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (s *Session) dispatch(n expr.Node) (*sx.Matrix, error) {
	switch v := n.(type) {
	case *expr.Constant:
		return constant(v)

	case *expr.Time:
		if s.bindings.Time == nil {
			return nil, &UnboundReferenceError{Kind: expr.KindTime}
		}
		return s.bindings.Time, nil

	case *expr.Input:
		m, ok := s.bindings.Inputs[v.InputName()]
		if !ok || m == nil {
			return nil, &UnboundReferenceError{Kind: expr.KindInput, Name: v.InputName()}
		}
		return m, nil

	case *expr.StateVector:
		if s.bindings.State == nil {
			return nil, &UnboundReferenceError{Kind: expr.KindStateVector}
		}
		slices := v.Slices()
		parts := make([]*sx.Matrix, len(slices))
		for i, sl := range slices {
			p, err := s.bindings.State.Slice(sl.Start, sl.Stop)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		return sx.Vertcat(parts...)

	case *expr.Binary:
		l, err := s.lower(v.Left())
		if err != nil {
			return nil, err
		}
		r, err := s.lower(v.Right())
		if err != nil {
			return nil, err
		}
		if v.Operator().Tag == expr.BinaryOuter {
			return sx.Kron(l, r), nil
		}
		return v.Operator().Rule(l, r)

	case *expr.Unary:
		c, err := s.lower(v.Child())
		if err != nil {
			return nil, err
		}
		if v.Operator().Tag == expr.UnaryAbs {
			return sx.Fabs(c), nil
		}
		return v.Operator().Rule(c)

	case *expr.Function:
		return s.function(v)

	case *expr.Concatenation:
		children, err := s.lowerAll(v.Children())
		if err != nil {
			return nil, err
		}
		return sx.Vertcat(children...)

	case *expr.DomainConcatenation:
		return s.domainConcatenation(v)
	}
	return nil, &UnsupportedNodeError{Kind: n.Kind(), Node: n.String()}
}

// constant copies a numeric payload into a backend literal. Sparse payloads
// only visit their stored entries.
func constant(c *expr.Constant) (*sx.Matrix, error) {
	value := c.Value()
	rows, cols := value.Dims()
	num := func(v float64) (sx.Expr, error) {
		n, err := sx.Finite(v)
		if err != nil {
			return nil, fmt.Errorf("symlower: constant %s: %w", c, err)
		}
		return n, nil
	}
	entries := make([]sx.Expr, rows*cols)
	if sp, ok := value.(*expr.Sparse); ok {
		zero := sx.N(0)
		for i := range entries {
			entries[i] = zero
		}
		for _, e := range sp.NonZero() {
			n, err := num(e.Value)
			if err != nil {
				return nil, err
			}
			entries[e.Row*cols+e.Col] = n
		}
		return sx.MatrixFromSlice(rows, cols, entries), nil
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			n, err := num(value.At(i, j))
			if err != nil {
				return nil, err
			}
			entries[i*cols+j] = n
		}
	}
	return sx.MatrixFromSlice(rows, cols, entries), nil
}

func (s *Session) function(f *expr.Function) (*sx.Matrix, error) {
	args, err := s.lowerAll(f.Args())
	if err != nil {
		return nil, err
	}
	c := f.Callable()
	if c.Kind() == expr.FuncGradient {
		if d := c.Base().Derivative(); d.Kind == expr.DerivativeAnalytic {
			partial, err := d.Rule(f.Args(), c.ArgIndex())
			if err != nil {
				return nil, &UnresolvedDerivativeError{Func: c.Base().Name(), Arg: c.ArgIndex(), Reason: err.Error()}
			}
			return s.lower(partial)
		}
	}
	return s.apply(c, args)
}

// apply evaluates c on lowered arguments. Gradients reached here go through
// the bridge, which is also how the bridge differentiates a gradient.
func (s *Session) apply(c *expr.Callable, args []*sx.Matrix) (*sx.Matrix, error) {
	switch c.Kind() {
	case expr.FuncMin:
		return sx.Mmin(args...)
	case expr.FuncMax:
		return sx.Mmax(args...)
	case expr.FuncAbs:
		return sx.Fabs(args[0]), nil
	case expr.FuncInterpolant:
		if len(args) != 1 {
			return nil, &UnsupportedNodeError{Kind: expr.KindFunction, Node: c.Name(), Reason: "interpolant with more than one argument"}
		}
		table, err := s.table(c)
		if err != nil {
			return nil, err
		}
		return sx.Map(args[0], func(x sx.Expr) sx.Expr { return sx.LookupOf(table, x) }), nil
	case expr.FuncGradient:
		return s.bridge(c.Base(), c.ArgIndex(), args)
	}
	if c.Rule() == nil {
		return nil, &UnsupportedNodeError{Kind: expr.KindFunction, Node: c.Name(), Reason: "callable has no lowering rule"}
	}
	return c.Rule()(args)
}

func (s *Session) table(c *expr.Callable) (*sx.Table, error) {
	if t, ok := s.tables[c]; ok {
		return t, nil
	}
	xs, ys := c.Samples()
	t, err := sx.NewTable(c.Name(), c.Method(), xs, ys)
	if err != nil {
		return nil, err
	}
	s.tables[c] = t
	return t, nil
}
