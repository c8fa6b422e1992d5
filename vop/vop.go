// Package vop defines the symbolic surface of vforge: registers, operands,
// element/width shapes, mnemonics, and the planned-instruction types the
// selector produces. Values of these types are inert data; all planning and
// encoding happens in the context owning them.
package vop

import "fmt"

// RegClass distinguishes the two virtual register files.
type RegClass byte

const (
	// RegClassGP is the general-purpose file: addresses, scalar lane values,
	// loop counters, mask summaries.
	RegClassGP RegClass = iota
	// RegClassVec is the vector file.
	RegClassVec
)

// Register file sizes. Indexes are 0-based and dense.
const (
	NumGPRegisters  = 16
	NumVecRegisters = 32
)

func (c RegClass) String() string {
	switch c {
	case RegClassGP:
		return "gp"
	case RegClassVec:
		return "vec"
	default:
		return "unknown"
	}
}

// Register names one virtual register, or a pair of vector registers for
// shapes twice the target's native width. The zero value is RegNone.
//
// The representation packs validity, pair-ness, class and up to two indexes
// into a single word so registers stay comparable and cheap to copy.
type Register uint32

const (
	regLoShift    = 0
	regHiShift    = 8
	regClassShift = 16
	regValidBit   = 1 << 24
	regPairBit    = 1 << 25
)

// RegNone is the absent register.
const RegNone Register = 0

func newReg(c RegClass, lo, hi int, pair bool) Register {
	r := Register(lo&0xff)<<regLoShift |
		Register(hi&0xff)<<regHiShift |
		Register(c)<<regClassShift | regValidBit
	if pair {
		r |= regPairBit
	}
	return r
}

// RegGP returns the i-th general-purpose register, or RegNone when i is out
// of range.
func RegGP(i int) Register {
	if i < 0 || i >= NumGPRegisters {
		return RegNone
	}
	return newReg(RegClassGP, i, 0, false)
}

// RegVec returns the i-th vector register, or RegNone when i is out of range.
func RegVec(i int) Register {
	if i < 0 || i >= NumVecRegisters {
		return RegNone
	}
	return newReg(RegClassVec, i, 0, false)
}

// VPair combines two distinct single vector registers into one wide register
// holding the low and high halves of a double-width value. It returns RegNone
// when either half is not a single vector register or the halves coincide.
func VPair(lo, hi Register) Register {
	if lo.Class() != RegClassVec || hi.Class() != RegClassVec ||
		lo.IsPair() || hi.IsPair() || lo == hi {
		return RegNone
	}
	return newReg(RegClassVec, lo.Low(), hi.Low(), true)
}

// IsNone reports whether r names no register.
func (r Register) IsNone() bool { return r&regValidBit == 0 }

// IsPair reports whether r names a register pair.
func (r Register) IsPair() bool { return r&regPairBit != 0 }

// Class returns the register file r belongs to. Class of RegNone is RegClassGP.
func (r Register) Class() RegClass { return RegClass(r >> regClassShift & 0xff) }

// Low returns the index of r, or of its low half for a pair.
func (r Register) Low() int { return int(r >> regLoShift & 0xff) }

// High returns the index of the high half of a pair, and 0 otherwise.
func (r Register) High() int { return int(r >> regHiShift & 0xff) }

// LowReg returns the low half of a pair as a single register, or r itself.
func (r Register) LowReg() Register {
	if !r.IsPair() {
		return r
	}
	return RegVec(r.Low())
}

// HighReg returns the high half of a pair as a single register, or r itself.
func (r Register) HighReg() Register {
	if !r.IsPair() {
		return r
	}
	return RegVec(r.High())
}

func (r Register) String() string {
	switch {
	case r.IsNone():
		return "none"
	case r.IsPair():
		return fmt.Sprintf("V%d:V%d", r.Low(), r.High())
	case r.Class() == RegClassGP:
		return fmt.Sprintf("R%d", r.Low())
	default:
		return fmt.Sprintf("V%d", r.Low())
	}
}

// General-purpose registers.
var (
	R0  = RegGP(0)
	R1  = RegGP(1)
	R2  = RegGP(2)
	R3  = RegGP(3)
	R4  = RegGP(4)
	R5  = RegGP(5)
	R6  = RegGP(6)
	R7  = RegGP(7)
	R8  = RegGP(8)
	R9  = RegGP(9)
	R10 = RegGP(10)
	R11 = RegGP(11)
	R12 = RegGP(12)
	R13 = RegGP(13)
	R14 = RegGP(14)
	R15 = RegGP(15)
)

// Vector registers.
var (
	V0  = RegVec(0)
	V1  = RegVec(1)
	V2  = RegVec(2)
	V3  = RegVec(3)
	V4  = RegVec(4)
	V5  = RegVec(5)
	V6  = RegVec(6)
	V7  = RegVec(7)
	V8  = RegVec(8)
	V9  = RegVec(9)
	V10 = RegVec(10)
	V11 = RegVec(11)
	V12 = RegVec(12)
	V13 = RegVec(13)
	V14 = RegVec(14)
	V15 = RegVec(15)
	V16 = RegVec(16)
	V17 = RegVec(17)
	V18 = RegVec(18)
	V19 = RegVec(19)
	V20 = RegVec(20)
	V21 = RegVec(21)
	V22 = RegVec(22)
	V23 = RegVec(23)
	V24 = RegVec(24)
	V25 = RegVec(25)
	V26 = RegVec(26)
	V27 = RegVec(27)
	V28 = RegVec(28)
	V29 = RegVec(29)
	V30 = RegVec(30)
	V31 = RegVec(31)
)

// Label identifies a branch target within one emission context. Labels are
// allocated by the context and resolve to a code offset when bound.
type Label uint32

// LabelInvalid is the zero, never-allocated label.
const LabelInvalid Label = 0

func (l Label) String() string {
	if l == LabelInvalid {
		return "L?"
	}
	return fmt.Sprintf("L%d", l)
}

// Path reports which lowering strategy the selector chose for an operation.
type Path byte

const (
	// PathNative lowers to a single instruction from the target's table.
	PathNative Path = iota
	// PathPair lowers a double-width operation to one instruction per half.
	PathPair
	// PathFallback lowers through scratch memory and narrower operations.
	PathFallback
)

func (p Path) String() string {
	switch p {
	case PathNative:
		return "native"
	case PathPair:
		return "pair"
	case PathFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MaskCond is the condition tested by JumpIfMask.
type MaskCond byte

const (
	// MaskAll is satisfied when every lane of the mask is set.
	MaskAll MaskCond = iota
	// MaskNone is satisfied when no lane of the mask is set.
	MaskNone
	// MaskAny is satisfied when at least one lane is set.
	MaskAny
	// MaskNotAll is satisfied when at least one lane is clear.
	MaskNotAll
)

func (c MaskCond) String() string {
	switch c {
	case MaskAll:
		return "all"
	case MaskNone:
		return "none"
	case MaskAny:
		return "any"
	case MaskNotAll:
		return "not-all"
	default:
		return "unknown"
	}
}
