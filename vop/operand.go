package vop

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by validation failures across the module.
var (
	// ErrBadOperand reports an operand whose register class, pair-ness or
	// kind does not fit the operation.
	ErrBadOperand = errors.New("invalid operand")
	// ErrBadShape reports a malformed or inconsistent shape.
	ErrBadShape = errors.New("invalid shape")
	// ErrBadAddress reports a memory operand no addressing form of the
	// target can express.
	ErrBadAddress = errors.New("invalid address")
	// ErrUnsupported reports an operation the target cannot lower at the
	// requested shape.
	ErrUnsupported = errors.New("unsupported operation")
)

// OperandKind tags the variants of Operand.
type OperandKind byte

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandMem
	OperandImm
)

func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandReg:
		return "reg"
	case OperandMem:
		return "mem"
	case OperandImm:
		return "imm"
	default:
		return "unknown"
	}
}

// Operand is one source or destination of an operation: a register, a memory
// reference, or an immediate. The zero value is the absent operand.
type Operand struct {
	Kind OperandKind
	Reg  Register
	Mem  MemoryOperand
	Imm  int64
}

// Reg wraps a register as an operand.
func Reg(r Register) Operand { return Operand{Kind: OperandReg, Reg: r} }

// Mem wraps a memory reference as an operand.
func Mem(m MemoryOperand) Operand { return Operand{Kind: OperandMem, Mem: m} }

// Imm wraps an immediate as an operand.
func Imm(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return o.Reg.String()
	case OperandMem:
		return o.Mem.String()
	case OperandImm:
		return fmt.Sprintf("#%d", o.Imm)
	default:
		return "none"
	}
}

// AddrMode selects among the addressing forms a target may support.
type AddrMode byte

const (
	// AddrBaseDisp is base register plus signed displacement.
	AddrBaseDisp AddrMode = iota
	// AddrBaseIndexDisp adds a scaled index register.
	AddrBaseIndexDisp
)

func (m AddrMode) String() string {
	switch m {
	case AddrBaseDisp:
		return "base+disp"
	case AddrBaseIndexDisp:
		return "base+index+disp"
	default:
		return "unknown"
	}
}

// MemoryOperand is a symbolic memory reference. Base and Index must be
// single general-purpose registers; Scale applies to Index and must be one
// of 1, 2, 4 or 8.
type MemoryOperand struct {
	Mode  AddrMode
	Base  Register
	Index Register
	Scale uint8
	Disp  int64
}

// NewMem builds a base+displacement reference.
func NewMem(base Register, disp int64) (MemoryOperand, error) {
	m := MemoryOperand{Mode: AddrBaseDisp, Base: base, Disp: disp}
	if err := m.Validate(); err != nil {
		return MemoryOperand{}, err
	}
	return m, nil
}

// NewMemIndexed builds a base+index*scale+displacement reference.
func NewMemIndexed(base, index Register, scale uint8, disp int64) (MemoryOperand, error) {
	m := MemoryOperand{Mode: AddrBaseIndexDisp, Base: base, Index: index, Scale: scale, Disp: disp}
	if err := m.Validate(); err != nil {
		return MemoryOperand{}, err
	}
	return m, nil
}

// AddDisp returns m displaced by delta bytes, as used when re-addressing the
// high half of a pair-split memory operand.
func (m MemoryOperand) AddDisp(delta int64) MemoryOperand {
	m.Disp += delta
	return m
}

// Validate checks the reference independent of any target: register classes,
// pair-ness and the scale set.
func (m MemoryOperand) Validate() error {
	if m.Base.IsNone() || m.Base.Class() != RegClassGP || m.Base.IsPair() {
		return fmt.Errorf("%w: base %s is not a general-purpose register", ErrBadAddress, m.Base)
	}
	switch m.Mode {
	case AddrBaseDisp:
		if !m.Index.IsNone() {
			return fmt.Errorf("%w: index %s without indexed mode", ErrBadAddress, m.Index)
		}
	case AddrBaseIndexDisp:
		if m.Index.IsNone() || m.Index.Class() != RegClassGP || m.Index.IsPair() {
			return fmt.Errorf("%w: index %s is not a general-purpose register", ErrBadAddress, m.Index)
		}
		switch m.Scale {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: scale %d", ErrBadAddress, m.Scale)
		}
	default:
		return fmt.Errorf("%w: mode %d", ErrBadAddress, m.Mode)
	}
	return nil
}

func (m MemoryOperand) String() string {
	s := "[" + m.Base.String()
	if m.Mode == AddrBaseIndexDisp {
		s += fmt.Sprintf(" + %s*%d", m.Index, m.Scale)
	}
	if m.Disp != 0 {
		if m.Disp > 0 {
			s += fmt.Sprintf(" + %#x", m.Disp)
		} else {
			s += fmt.Sprintf(" - %#x", -m.Disp)
		}
	}
	return s + "]"
}

// AddrCaps describes the addressing reach of one target: the signed width of
// its displacement field and the largest index scale it accepts.
type AddrCaps struct {
	DispBits uint8
	MaxScale uint8
}

// FitsSigned reports whether v is representable in a signed field of the
// given width.
func FitsSigned(v int64, bits uint8) bool {
	if bits == 0 {
		return v == 0
	}
	if bits >= 64 {
		return true
	}
	return v >= -(int64(1)<<(bits-1)) && v < int64(1)<<(bits-1)
}

// FitsUnsigned reports whether v is representable in an unsigned field of
// the given width.
func FitsUnsigned(v uint64, bits uint8) bool {
	if bits >= 64 {
		return true
	}
	return v < uint64(1)<<bits
}

// DispFits reports whether the displacement of m is directly encodable.
func (m MemoryOperand) DispFits(c AddrCaps) bool { return FitsSigned(m.Disp, c.DispBits) }

// ModeSupported reports whether the addressing form of m is available at all
// on a target with caps c.
func (m MemoryOperand) ModeSupported(c AddrCaps) bool {
	return m.Mode == AddrBaseDisp || m.Scale <= c.MaxScale
}

// NeedsMaterialize reports whether the displacement must be built in a
// register before the reference can be encoded.
func (m MemoryOperand) NeedsMaterialize(c AddrCaps) bool { return !m.DispFits(c) }
