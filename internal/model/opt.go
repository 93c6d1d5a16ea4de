package model

import (
	"math"
	"strconv"
)

// Number is the set of value types an Opt can carry.
type Number interface {
	~int | ~float64
}

// Opt is a numeric value that may be missing. The zero value is missing.
//
// Missing is always carried explicitly: a zero Val with Valid=false is never
// read as a true zero.
type Opt[T Number] struct {
	Val   T
	Valid bool
}

// Float is an optional float64.
type Float = Opt[float64]

// Int is an optional int.
type Int = Opt[int]

// Some returns a present value.
func Some[T Number](v T) Opt[T] { return Opt[T]{Val: v, Valid: true} }

// None returns a missing value.
func None[T Number]() Opt[T] { return Opt[T]{} }

// SomeFloat returns a present float, or missing when v is NaN or infinite.
func SomeFloat(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Val: v, Valid: true}
}

// Float converts the value to an optional float64.
func (o Opt[T]) Float() Float {
	if !o.Valid {
		return Float{}
	}
	return Float{Val: float64(o.Val), Valid: true}
}

// Or returns the value, or def when missing.
func (o Opt[T]) Or(def T) T {
	if !o.Valid {
		return def
	}
	return o.Val
}

// Ptr returns a pointer to the value, or nil when missing. Used for JSON and
// SQL NULL encoding.
func (o Opt[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Val
	return &v
}

// FromPtr is the inverse of Ptr.
func FromPtr[T Number](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Some(*p)
}

// Format renders the value with the given precision, or sentinel when missing.
func (o Opt[T]) Format(prec int, sentinel string) string {
	if !o.Valid {
		return sentinel
	}
	return strconv.FormatFloat(float64(o.Val), 'f', prec, 64)
}

// Sub returns a − b, missing if either side is missing.
func Sub(a, b Float) Float {
	if !a.Valid || !b.Valid {
		return Float{}
	}
	return SomeFloat(a.Val - b.Val)
}

// Neg negates a present value; missing stays missing.
func Neg(a Float) Float {
	if !a.Valid {
		return a
	}
	return Float{Val: -a.Val, Valid: true}
}

// Ratio returns num/den, missing when den is zero or either side is missing.
func Ratio(num, den Float) Float {
	if !num.Valid || !den.Valid || den.Val == 0 {
		return Float{}
	}
	return SomeFloat(num.Val / den.Val)
}
