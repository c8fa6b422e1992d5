package vop

import "fmt"

// ElemKind is the per-lane element type of a shape.
type ElemKind byte

const (
	ElemI8 ElemKind = iota
	ElemI16
	ElemI32
	ElemI64
	ElemF32
	ElemF64
	elemEnd
)

var elemNames = [elemEnd]string{"i8", "i16", "i32", "i64", "f32", "f64"}
var elemBits = [elemEnd]int{8, 16, 32, 64, 32, 64}

func (e ElemKind) valid() bool { return e < elemEnd }

func (e ElemKind) String() string {
	if !e.valid() {
		return "invalid"
	}
	return elemNames[e]
}

// Bits returns the element width in bits.
func (e ElemKind) Bits() int {
	if !e.valid() {
		return 0
	}
	return elemBits[e]
}

// Bytes returns the element width in bytes.
func (e ElemKind) Bytes() int { return e.Bits() / 8 }

// IsFloat reports whether e is a floating-point element.
func (e ElemKind) IsFloat() bool { return e == ElemF32 || e == ElemF64 }

// IntKind returns the integer element of the same width, for conversions and
// mask shapes.
func (e ElemKind) IntKind() ElemKind {
	switch e {
	case ElemF32:
		return ElemI32
	case ElemF64:
		return ElemI64
	default:
		return e
	}
}

// FloatKind returns the float element of the same width, or e unchanged when
// no such element exists.
func (e ElemKind) FloatKind() ElemKind {
	switch e {
	case ElemI32:
		return ElemF32
	case ElemI64:
		return ElemF64
	default:
		return e
	}
}

// WidthScalable marks a shape whose vector width is resolved by the selector
// to the target's native width.
const WidthScalable uint16 = 0xffff

// maxVecBits bounds concrete shape widths; the widest target is 512-bit
// native with register pairs doubling it.
const maxVecBits = 1024

// Shape describes the lane geometry of one operation: the element kind and
// the total vector width in bits. A width equal to the element width denotes
// a scalar shape; WidthScalable defers the width to the target.
type Shape struct {
	Elem    ElemKind
	VecBits uint16
}

// Scalar returns the one-lane shape of e.
func Scalar(e ElemKind) Shape { return Shape{Elem: e, VecBits: uint16(e.Bits())} }

// Scalable returns the target-width shape of e.
func Scalable(e ElemKind) Shape { return Shape{Elem: e, VecBits: WidthScalable} }

// NewShape builds a validated concrete shape.
func NewShape(e ElemKind, vecBits int) (Shape, error) {
	s := Shape{Elem: e, VecBits: uint16(vecBits)}
	if vecBits <= 0 || vecBits > maxVecBits {
		return Shape{}, fmt.Errorf("%w: vector width %d", ErrBadShape, vecBits)
	}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// IsScalable reports whether the width is deferred to the target.
func (s Shape) IsScalable() bool { return s.VecBits == WidthScalable }

// IsScalar reports whether s has exactly one lane.
func (s Shape) IsScalar() bool { return int(s.VecBits) == s.Elem.Bits() }

// Lanes returns the lane count of a concrete shape.
func (s Shape) Lanes() int {
	if s.IsScalable() || !s.Elem.valid() {
		return 0
	}
	return int(s.VecBits) / s.Elem.Bits()
}

// Bytes returns the total width of a concrete shape in bytes.
func (s Shape) Bytes() int {
	if s.IsScalable() {
		return 0
	}
	return int(s.VecBits) / 8
}

// WithBits returns s with the width replaced.
func (s Shape) WithBits(vecBits int) Shape {
	return Shape{Elem: s.Elem, VecBits: uint16(vecBits)}
}

// Half returns the shape of one register-pair half.
func (s Shape) Half() Shape { return s.WithBits(int(s.VecBits) / 2) }

// Validate checks that a concrete shape is well-formed: the width is a
// power of two, holds at least one lane, and divides evenly into lanes.
func (s Shape) Validate() error {
	if !s.Elem.valid() {
		return fmt.Errorf("%w: element kind %d", ErrBadShape, s.Elem)
	}
	if s.IsScalable() {
		return nil
	}
	b := int(s.VecBits)
	switch {
	case b < s.Elem.Bits() || b > maxVecBits:
		return fmt.Errorf("%w: %s width %d bits", ErrBadShape, s.Elem, b)
	case b&(b-1) != 0:
		return fmt.Errorf("%w: width %d not a power of two", ErrBadShape, b)
	case b%s.Elem.Bits() != 0:
		return fmt.Errorf("%w: width %d not a multiple of %s", ErrBadShape, b, s.Elem)
	}
	return nil
}

func (s Shape) String() string {
	switch {
	case s.IsScalable():
		return s.Elem.String() + "xN"
	case s.IsScalar():
		return s.Elem.String()
	default:
		return fmt.Sprintf("%sx%d", s.Elem, s.Lanes())
	}
}
