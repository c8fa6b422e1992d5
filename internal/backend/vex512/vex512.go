// Package vex512 is the 512-bit mem-operand target: 64-bit words, three
// operand non-destructive vector encodings with the distinct-destination
// proviso (dst may not name any source), full 64-bit lane coverage for
// min/max/mul/abs and variable shifts, and mask tests through byte
// reductions rather than a move-mask.
package vex512

import (
	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/internal/backend/longword"
	"github.com/vforge/vforge/vop"
)

const vectorBits = 512

func caps() backend.Caps {
	return backend.Caps{
		Name:           "vex512",
		Arch:           backend.ArchMemOperand,
		VectorBits:     vectorBits,
		WordBytes:      8,
		ThreeOperand:   true,
		DistinctDest:   true,
		HasBlend:       true,
		HasMoveMask:    false,
		ConstChunkBits: 32,
		BranchCmpBits:  16,
		Addr:           vop.AddrCaps{DispBits: 32, MaxScale: 8},
	}
}

var (
	intElems   = []vop.ElemKind{vop.ElemI8, vop.ElemI16, vop.ElemI32, vop.ElemI64}
	mulInts    = []vop.ElemKind{vop.ElemI16, vop.ElemI32, vop.ElemI64}
	shiftInts  = []vop.ElemKind{vop.ElemI16, vop.ElemI32, vop.ElemI64}
	floatElems = []vop.ElemKind{vop.ElemF32, vop.ElemF64}
	allElems   = append(append([]vop.ElemKind{}, intElems...), floatElems...)
)

type ruleSpec struct {
	m     vop.Mnemonic
	base  uint64
	l     backend.Layout
	elems []vop.ElemKind
}

// Vector encodings at the native width. Byte multiplies and byte shifts
// still have no vector form at this tier.
var vecRules = []ruleSpec{
	{vop.MnemAdd, 0xfc00_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemSub, 0xf800_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemMul, 0xd500_0000_0000_0000, backend.LayoutVecRRR, mulInts},
	{vop.MnemMin, 0x3900_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemMax, 0x3d00_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemAbs, 0x1c00_0000_0000_0000, backend.LayoutVecRR, intElems},
	{vop.MnemNeg, 0x1f00_0000_0000_0000, backend.LayoutVecRR, intElems},

	{vop.MnemAdd, 0x5800_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemSub, 0x5c00_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemMul, 0x5900_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemDiv, 0x5e00_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemMin, 0x5d00_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemMax, 0x5f00_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemAbs, 0x5400_0000_0000_0000, backend.LayoutVecRR, floatElems},
	{vop.MnemNeg, 0x5700_0000_0000_0000, backend.LayoutVecRR, floatElems},

	{vop.MnemAnd, 0xdb00_0000_0000_0000, backend.LayoutVecRRR, allElems},
	{vop.MnemOr, 0xeb00_0000_0000_0000, backend.LayoutVecRRR, allElems},
	{vop.MnemXor, 0xef00_0000_0000_0000, backend.LayoutVecRRR, allElems},
	{vop.MnemAndNot, 0xdf00_0000_0000_0000, backend.LayoutVecRRR, allElems},

	{vop.MnemShlImm, 0x7200_0000_0000_0000, backend.LayoutVecRI, shiftInts},
	{vop.MnemShrImm, 0x7100_0000_0000_0000, backend.LayoutVecRI, shiftInts},
	{vop.MnemSarImm, 0x7000_0000_0000_0000, backend.LayoutVecRI, shiftInts},
	{vop.MnemShlVar, 0x4700_0000_0000_0000, backend.LayoutVecRRR, shiftInts},

	{vop.MnemCmpEq, 0x7400_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpNe, 0x6500_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpGt, 0x6400_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpLt, 0x6600_0000_0000_0000, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpEq, 0xc200_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpNe, 0xc300_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpGt, 0xc400_0000_0000_0000, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpLt, 0xc500_0000_0000_0000, backend.LayoutVecRRR, floatElems},

	{vop.MnemBlend, 0x4c00_0000_0000_0000, backend.LayoutVecRRRR, allElems},
	{vop.MnemRev, 0x8e00_0000_0000_0000, backend.LayoutVecRR, allElems},
	{vop.MnemMov, 0x6f00_0000_0000_0000, backend.LayoutVecRR, allElems},
	{vop.MnemBroadcast, 0x7800_0000_0000_0000, backend.LayoutVecFromGP, allElems},

	{vop.MnemCvtToInt, 0x5b00_0000_0000_0000, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI32, vop.ElemI64}},
	{vop.MnemCvtToFloat, 0xe600_0000_0000_0000, backend.LayoutVecRR, floatElems},

	{vop.MnemLoad, 0x1000_0000_0000_0000, backend.LayoutVecLoad, allElems},
	{vop.MnemStore, 0x1100_0000_0000_0000, backend.LayoutVecStore, allElems},

	{vop.MnemRedMinU, 0x3a00_0000_0000_0000, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI8}},
	{vop.MnemRedMaxU, 0x3e00_0000_0000_0000, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI8}},
}

var scalarRules = []ruleSpec{
	{vop.MnemAdd, 0x0300_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemSub, 0x2b00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemMul, 0xaf00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemDiv, 0xf700_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemMin, 0x8a00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemMax, 0x8b00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemAbs, 0x8c00_0000_0000_0000, backend.LayoutGPRR, intElems},
	{vop.MnemNeg, 0xf600_0000_0000_0000, backend.LayoutGPRR, intElems},

	{vop.MnemAdd, 0xd800_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemSub, 0xdc00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemMul, 0xc900_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemDiv, 0xca00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemMin, 0xcb00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemMax, 0xcc00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemAbs, 0xe100_0000_0000_0000, backend.LayoutGPRR, floatElems},
	{vop.MnemNeg, 0xe000_0000_0000_0000, backend.LayoutGPRR, floatElems},

	{vop.MnemAnd, 0x2300_0000_0000_0000, backend.LayoutGPRM, allElems},
	{vop.MnemOr, 0x0b00_0000_0000_0000, backend.LayoutGPRM, allElems},
	{vop.MnemXor, 0x3300_0000_0000_0000, backend.LayoutGPRM, allElems},
	{vop.MnemAndNot, 0xf200_0000_0000_0000, backend.LayoutGPRM, allElems},

	{vop.MnemShlImm, 0xc100_0000_0000_0000, backend.LayoutGPRI, intElems},
	{vop.MnemShrImm, 0xc000_0000_0000_0000, backend.LayoutGPRI, intElems},
	{vop.MnemSarImm, 0xd100_0000_0000_0000, backend.LayoutGPRI, intElems},
	{vop.MnemShlVar, 0xd300_0000_0000_0000, backend.LayoutGPRM, intElems},

	{vop.MnemCmpEq, 0x9400_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemCmpNe, 0x9500_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemCmpGt, 0x9f00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemCmpLt, 0x9c00_0000_0000_0000, backend.LayoutGPRM, intElems},
	{vop.MnemCmpEq, 0xba00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemCmpNe, 0xbb00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemCmpGt, 0xbc00_0000_0000_0000, backend.LayoutGPRM, floatElems},
	{vop.MnemCmpLt, 0xbd00_0000_0000_0000, backend.LayoutGPRM, floatElems},

	{vop.MnemCvtToInt, 0x2c00_0000_0000_0000, backend.LayoutGPRR, []vop.ElemKind{vop.ElemI32, vop.ElemI64}},
	{vop.MnemCvtToFloat, 0x2a00_0000_0000_0000, backend.LayoutGPRR, floatElems},
}

// New builds the target.
func New() (*backend.Backend, error) {
	b := backend.NewBuilder(caps(), longword.Encoder{})

	for _, r := range vecRules {
		for _, e := range r.elems {
			b.Native(r.m, e, vectorBits, r.base, r.l)
		}
	}
	for _, r := range scalarRules {
		for _, e := range r.elems {
			b.Scalar(r.m, e, r.base, r.l)
		}
	}
	for _, e := range allElems {
		b.Scalar(vop.MnemLoad, e, 0x8a00_0000_0000_0000, backend.LayoutGPLoad)
		b.Scalar(vop.MnemStore, e, 0x8800_0000_0000_0000, backend.LayoutGPStore)
	}

	for _, e := range allElems {
		b.Composed(vop.MnemRev, e, 2*vectorBits, vop.MnemRev, true)
	}

	b.Scalar(vop.MnemMovToGP, vop.ElemI8, 0x7e00_0000_0000_0000, backend.LayoutGPFromVec)
	b.Scalar(vop.MnemLoadConst, vop.ElemI64, 0xb800_0000_0000_0000, backend.LayoutGPConst)
	b.Scalar(vop.MnemLoadConstK, vop.ElemI64, 0xb900_0000_0000_0000, backend.LayoutGPConst)
	b.Scalar(vop.MnemAddAddr, vop.ElemI64, 0x8d00_0000_0000_0000, backend.LayoutGPRR)
	b.Scalar(vop.MnemAndAddr, vop.ElemI64, 0x2100_0000_0000_0000, backend.LayoutGPRR)
	b.Scalar(vop.MnemOrAddr, vop.ElemI64, 0x0900_0000_0000_0000, backend.LayoutGPRR)
	b.Scalar(vop.MnemXorAddr, vop.ElemI64, 0x3100_0000_0000_0000, backend.LayoutGPRR)
	b.Scalar(vop.MnemBrEq, vop.ElemI64, 0x8400_0000_0000_0000, backend.LayoutBranch)
	b.Scalar(vop.MnemBrNe, vop.ElemI64, 0x8500_0000_0000_0000, backend.LayoutBranch)

	return b.Build()
}
