package symlower

import (
	"fmt"

	"github.com/njchilds90/symlower/sx"
)

// Bindings are the values the free placeholders of a graph lower to. State
// is optional; a nil Inputs map binds no inputs.
type Bindings struct {
	Time   *sx.Matrix
	State  *sx.Matrix // column vector
	Inputs map[string]*sx.Matrix
}

// NumericBindings binds time, state and scalar inputs to numbers. A nil y
// leaves the state unbound. A NaN or infinite value is reported as a
// *NonFiniteBindingError.
func NumericBindings(t float64, y []float64, inputs map[string]float64) (Bindings, error) {
	tn, err := sx.Finite(t)
	if err != nil {
		return Bindings{}, &NonFiniteBindingError{Name: "t", Value: t}
	}
	b := Bindings{Time: sx.Scalar(tn)}
	if y != nil {
		for i, v := range y {
			if _, err := sx.Finite(v); err != nil {
				return Bindings{}, &NonFiniteBindingError{Name: fmt.Sprintf("y[%d]", i), Value: v}
			}
		}
		b.State = sx.FromFloats(len(y), 1, y)
	}
	if len(inputs) > 0 {
		b.Inputs = make(map[string]*sx.Matrix, len(inputs))
		for name, v := range inputs {
			n, err := sx.Finite(v)
			if err != nil {
				return Bindings{}, &NonFiniteBindingError{Name: "input." + name, Value: v}
			}
			b.Inputs[name] = sx.Scalar(n)
		}
	}
	return b, nil
}

// SymbolicBindings binds time to the symbol t, the state to the column of
// symbols y_0 … y_{n-1} (or y when n is 1) and each input to the symbol
// input.<name>. A zero stateSize leaves the state unbound.
func SymbolicBindings(stateSize int, inputs []string) Bindings {
	b := Bindings{Time: sx.MatSym("t", 1, 1)}
	if stateSize > 0 {
		b.State = sx.MatSym("y", stateSize, 1)
	}
	if len(inputs) > 0 {
		b.Inputs = make(map[string]*sx.Matrix, len(inputs))
		for _, name := range inputs {
			b.Inputs[name] = sx.MatSym(InputSymbol(name), 1, 1)
		}
	}
	return b
}

// InputSymbol is the backend symbol name SymbolicBindings gives an input.
// The prefix keeps inputs apart from the time and state symbols.
func InputSymbol(name string) string { return "input." + name }
