package sx

import "fmt"

// Shape is a (rows, cols) pair.
type Shape struct{ Rows, Cols int }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// ShapeMismatchError reports operands an operation cannot combine.
type ShapeMismatchError struct {
	Op          string
	Left, Right Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("sx: %s: incompatible shapes %s and %s", e.Op, e.Left, e.Right)
}

// RangeError reports a row slice outside a matrix.
type RangeError struct {
	Start, Stop, Len int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sx: slice [%d:%d] out of range for %d rows", e.Start, e.Stop, e.Len)
}

// EvalError reports a matrix entry that did not fold to a number.
type EvalError struct {
	Index int
	Expr  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("sx: entry %d does not evaluate to a finite number: %s", e.Index, e.Expr)
}

// NonFiniteError reports a NaN or infinite float where an exact number is
// needed.
type NonFiniteError struct {
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("sx: %v is not a finite number", e.Value)
}
