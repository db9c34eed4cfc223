// Package model loads expression graphs from HCL model files.
//
// A model file declares the placeholders of a discretized model (state
// slices, inputs), its numeric data (constants, interpolants), helper
// functions, and named expressions built from them. Every declared name maps
// to exactly one expr.Node, so referring to a name from several expressions
// shares the node between them.
package model

import (
	"sort"
	"strings"

	"github.com/njchilds90/symlower/expr"
)

// Output is a named root expression.
type Output struct {
	Name string
	Node expr.Node
}

// Model is a loaded set of model files.
type Model struct {
	// Outputs in declaration order.
	Outputs []Output
	// Variables holds variables and domain concatenations by name.
	Variables    map[string]expr.Node
	States       map[string]*expr.StateVector
	Constants    map[string]*expr.Constant
	Interpolants map[string]*expr.Callable
	Functions    map[string]*expr.Callable
	// Inputs are the declared input names, sorted.
	Inputs []string
	// StateSize is one past the largest state row any state declares.
	StateSize int
	Files     []string
}

// Output returns the output called name.
func (m *Model) Output(name string) (expr.Node, bool) {
	for _, o := range m.Outputs {
		if o.Name == name {
			return o.Node, true
		}
	}
	return nil, false
}

// OutputNames lists the outputs in declaration order.
func (m *Model) OutputNames() []string {
	names := make([]string, len(m.Outputs))
	for i, o := range m.Outputs {
		names[i] = o.Name
	}
	return names
}

// VariableNames lists the variables, sorted.
func (m *Model) VariableNames() []string {
	names := make([]string, 0, len(m.Variables))
	for name := range m.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CycleError reports declarations that depend on themselves.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "model: reference cycle: " + strings.Join(e.Chain, " -> ")
}
