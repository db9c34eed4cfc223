package symlower

import (
	"errors"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/sx"
)

// bridge builds the partial derivative of base with respect to argument k
// from the backend's own differentiation. base is evaluated on one fresh
// scalar symbol per argument, differentiated with respect to symbol k, and
// the derivative is compiled into a function that is mapped over args.
func (s *Session) bridge(base *expr.Callable, k int, args []*sx.Matrix) (*sx.Matrix, error) {
	if base.Kind() == expr.FuncMin || base.Kind() == expr.FuncMax {
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: "reduction over all entries"}
	}
	if base.Derivative().Kind == expr.DerivativeNone {
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: "no derivative provider"}
	}
	if k < 0 || k >= len(args) {
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: "argument out of range"}
	}
	params := make([]*sx.Matrix, len(args))
	for i := range params {
		params[i] = sx.Scalar(sx.Fresh(base.Name()))
	}
	out, err := s.apply(base, params)
	if err != nil {
		var unbound *UnboundReferenceError
		var unsupported *UnsupportedNodeError
		var shape *sx.ShapeMismatchError
		if errors.As(err, &unbound) || errors.As(err, &unsupported) || errors.As(err, &shape) {
			return nil, err
		}
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: err.Error()}
	}
	if !out.IsScalar() {
		return nil, &UnresolvedDerivativeError{
			Func:   base.Name(),
			Arg:    k,
			Reason: "not elementwise: scalar arguments give a " + out.Shape().String() + " result",
		}
	}
	grad, err := sx.Gradient(out, params[k])
	if err != nil {
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: err.Error()}
	}
	fn, err := sx.NewFunction("d"+base.Name(), params, grad)
	if err != nil {
		return nil, &UnresolvedDerivativeError{Func: base.Name(), Arg: k, Reason: err.Error()}
	}
	return fn.Call(args...)
}
