package symlower

import (
	"errors"
	"fmt"

	"github.com/njchilds90/symlower/expr"
)

// ErrConcurrentUse is returned when a Session is entered while another call
// on it is still running.
var ErrConcurrentUse = errors.New("symlower: session used concurrently")

// UnboundReferenceError reports a placeholder the bindings do not provide.
type UnboundReferenceError struct {
	Kind expr.Kind
	Name string // input name; empty for time and state
}

func (e *UnboundReferenceError) Error() string {
	switch e.Kind {
	case expr.KindStateVector:
		return "symlower: state vector referenced but no state is bound"
	case expr.KindTime:
		return "symlower: time referenced but not bound"
	}
	return fmt.Sprintf("symlower: input %q is not bound", e.Name)
}

// NonFiniteBindingError reports a NaN or infinite time, state or input
// value. Name is t, y[i] or input.<name>.
type NonFiniteBindingError struct {
	Name  string
	Value float64
}

func (e *NonFiniteBindingError) Error() string {
	return fmt.Sprintf("symlower: %s is %v, want a finite number", e.Name, e.Value)
}

// UnsupportedNodeError reports a node the engine has no lowering for.
type UnsupportedNodeError struct {
	Kind   expr.Kind
	Node   string
	Reason string
}

func (e *UnsupportedNodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("symlower: cannot lower %s node %s: %s", e.Kind, e.Node, e.Reason)
	}
	return fmt.Sprintf("symlower: cannot lower %s node %s", e.Kind, e.Node)
}

// UnresolvedDerivativeError reports a gradient the engine could not build.
type UnresolvedDerivativeError struct {
	Func   string
	Arg    int
	Reason string
}

func (e *UnresolvedDerivativeError) Error() string {
	return fmt.Sprintf("symlower: derivative of %s with respect to argument %d: %s", e.Func, e.Arg, e.Reason)
}
