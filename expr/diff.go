package expr

import "fmt"

// NotDifferentiableError reports a node Diff has no derivative rule for.
type NotDifferentiableError struct {
	Node   string
	Reason string
}

func (e *NotDifferentiableError) Error() string {
	return fmt.Sprintf("expr: cannot differentiate %s: %s", e.Node, e.Reason)
}

// Diff builds the derivative of n along wrt: the rate of change of n when
// every state row wrt selects grows at unit rate and every other row is
// held fixed. For a single-row wrt this is the ordinary derivative.
//
// The result shares sub-graphs with n. A derivative that is identically
// zero is a scalar Constant; other derivatives broadcast against the shape
// of the node they differentiate.
func Diff(n Node, wrt *StateVector) (Node, error) {
	d := &differ{wrt: wrt, memo: map[ID]Node{}, zero: Scalar(0)}
	return d.of(n)
}

type differ struct {
	wrt  *StateVector
	memo map[ID]Node
	zero *Constant
}

func (d *differ) of(n Node) (Node, error) {
	if v, ok := d.memo[n.ID()]; ok {
		return v, nil
	}
	v, err := d.rule(n)
	if err != nil {
		return nil, err
	}
	d.memo[n.ID()] = v
	return v, nil
}

func isZero(n Node) bool {
	c, ok := n.(*Constant)
	return ok && c.IsZero()
}

// shaped gives dn the shape of like.
func (d *differ) shaped(dn, like Node) Node {
	zeros := Mul(d.zero, like)
	if isZero(dn) {
		return zeros
	}
	return Add(zeros, dn)
}

func (d *differ) plus(a, b Node) Node {
	switch {
	case isZero(a):
		return b
	case isZero(b):
		return a
	}
	return Add(a, b)
}

func (d *differ) times(a, b Node) Node {
	if isZero(a) || isZero(b) {
		return d.zero
	}
	return Mul(a, b)
}

func (d *differ) rule(n Node) (Node, error) {
	switch v := n.(type) {
	case *Constant, *Time, *Input, *Parameter:
		return d.zero, nil
	case *StateVector:
		return d.stateVector(v), nil
	case *Binary:
		return d.binary(v)
	case *Unary:
		return d.unary(v)
	case *Function:
		return d.function(v)
	case *Concatenation:
		children, err := d.children(v.children)
		if err != nil || children == nil {
			return d.zero, err
		}
		return NewConcatenation(v.flavour, children), nil
	case *DomainConcatenation:
		children, err := d.children(v.children)
		if err != nil || children == nil {
			return d.zero, err
		}
		dc, err := NewDomainConcatenation(children, v.parts, v.reps)
		if err != nil {
			return nil, err
		}
		return dc, nil
	}
	return nil, &NotDifferentiableError{Node: n.String(), Reason: fmt.Sprintf("no rule for %s nodes", n.Kind())}
}

func (d *differ) stateVector(sv *StateVector) Node {
	if sv.ID() == d.wrt.ID() {
		return d.ones(sv.Size())
	}
	ind := make([]float64, 0, sv.Size())
	hit := false
	for _, s := range sv.slices {
		for i := s.Start; i < s.Stop; i++ {
			if d.wrt.Covers(i) {
				ind = append(ind, 1)
				hit = true
			} else {
				ind = append(ind, 0)
			}
		}
	}
	if !hit {
		return d.zero
	}
	return Vector(ind...)
}

func (d *differ) ones(n int) Node {
	if n == 1 {
		return Scalar(1)
	}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return Vector(ones...)
}

// children differentiates the children of a concatenation. It returns nil
// when every derivative is zero.
func (d *differ) children(cs []Node) ([]Node, error) {
	out := make([]Node, len(cs))
	zero := true
	for i, c := range cs {
		dc, err := d.of(c)
		if err != nil {
			return nil, err
		}
		if !isZero(dc) {
			zero = false
		}
		out[i] = dc
	}
	if zero {
		return nil, nil
	}
	for i, c := range cs {
		out[i] = d.shaped(out[i], c)
	}
	return out, nil
}

func (d *differ) binary(b *Binary) (Node, error) {
	l, r := b.left, b.right
	dl, err := d.of(l)
	if err != nil {
		return nil, err
	}
	dr, err := d.of(r)
	if err != nil {
		return nil, err
	}
	if isZero(dl) && isZero(dr) {
		return d.zero, nil
	}
	switch b.op.Tag {
	case BinaryAdd:
		return d.plus(dl, dr), nil
	case BinarySubtract:
		if isZero(dl) {
			return Neg(dr), nil
		}
		if isZero(dr) {
			return dl, nil
		}
		return Sub(dl, dr), nil
	case BinaryMultiply:
		return d.plus(d.times(dl, r), d.times(l, dr)), nil
	case BinaryDivide:
		if isZero(dr) {
			return Div(dl, r), nil
		}
		num := Mul(l, dr)
		if isZero(dl) {
			return Neg(Div(num, Pow(r, Scalar(2)))), nil
		}
		return Div(Sub(Mul(dl, r), num), Pow(r, Scalar(2))), nil
	case BinaryPower:
		if isZero(dr) {
			return Mul(Mul(r, Pow(l, Sub(r, Scalar(1)))), dl), nil
		}
		logTerm := Mul(dr, Log(l))
		if isZero(dl) {
			return Mul(b, logTerm), nil
		}
		return Mul(b, Add(logTerm, Mul(r, Div(dl, l)))), nil
	case BinaryOuter:
		return d.plus(
			d.outer(OpOuter, dl, l, r, true),
			d.outer(OpOuter, dr, l, r, false),
		), nil
	case BinaryMatMul:
		return d.plus(
			d.outer(OpMatMul, dl, l, r, true),
			d.outer(OpMatMul, dr, l, r, false),
		), nil
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return d.zero, nil
	case BinaryMinimum:
		return d.plus(d.times(Le(l, r), dl), d.times(Gt(l, r), dr)), nil
	case BinaryMaximum:
		return d.plus(d.times(Ge(l, r), dl), d.times(Lt(l, r), dr)), nil
	}
	return nil, &NotDifferentiableError{Node: b.String(), Reason: "custom binary operator " + b.op.Symbol}
}

// outer is the product-rule term of a bilinear operator in which the
// left (or right) operand is replaced by its derivative.
func (d *differ) outer(op *BinaryOperator, dx, l, r Node, left bool) Node {
	if isZero(dx) {
		return d.zero
	}
	if left {
		return NewBinary(op, d.shaped(dx, l), r)
	}
	return NewBinary(op, l, d.shaped(dx, r))
}

func (d *differ) unary(u *Unary) (Node, error) {
	c := u.child
	dc, err := d.of(c)
	if err != nil {
		return nil, err
	}
	switch u.op.Tag {
	case UnarySign, UnaryFloor, UnaryCeil:
		return d.zero, nil
	}
	if isZero(dc) {
		return d.zero, nil
	}
	switch u.op.Tag {
	case UnaryNegate:
		return Neg(dc), nil
	case UnaryAbs:
		return Mul(Sign(c), dc), nil
	case UnaryTranspose:
		return Transpose(dc), nil
	case UnarySum, UnaryIndex:
		return NewUnary(u.op, d.shaped(dc, c)), nil
	}
	return nil, &NotDifferentiableError{Node: u.String(), Reason: "custom unary operator " + u.op.Symbol}
}

func (d *differ) function(f *Function) (Node, error) {
	c := f.fn
	switch {
	case c.kind == FuncMin || c.kind == FuncMax:
		return nil, &NotDifferentiableError{Node: f.String(), Reason: "reduction over all entries"}
	case c.deriv.Kind == DerivativeNone:
		return nil, &NotDifferentiableError{Node: f.String(), Reason: c.name + " has no derivative"}
	}
	var total Node = d.zero
	for k, a := range f.args {
		da, err := d.of(a)
		if err != nil {
			return nil, err
		}
		if isZero(da) {
			continue
		}
		var partial Node
		if c.deriv.Kind == DerivativeAnalytic {
			partial, err = c.deriv.Rule(f.args, k)
			if err != nil {
				return nil, err
			}
		} else {
			partial = Apply(GradientOf(c, k), f.args...)
		}
		total = d.plus(total, Mul(partial, da))
	}
	return total, nil
}
