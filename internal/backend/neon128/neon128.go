// Package neon128 is the 128-bit load-store target: 32-bit words, three
// operand non-destructive encodings, blend consuming its mask from the
// destination register, and mask tests through byte-granular reductions.
// Opcode bases are drawn from the A64 SIMD encodings; where the modeled ISA
// has no single instruction (scalar compare-to-mask, distinct lane-reversal
// compares) the base is a free point in the same opcode space.
package neon128

import (
	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

const vectorBits = 128

func caps() backend.Caps {
	return backend.Caps{
		Name:           "neon128",
		Arch:           backend.ArchLoadStore,
		VectorBits:     vectorBits,
		WordBytes:      4,
		ThreeOperand:   true,
		HasBlend:       true,
		BlendMaskInDst: true,
		HasMoveMask:    false,
		ConstChunkBits: 16,
		BranchCmpBits:  8,
		Addr:           vop.AddrCaps{DispBits: 9, MaxScale: 0},
	}
}

var (
	intElems   = []vop.ElemKind{vop.ElemI8, vop.ElemI16, vop.ElemI32, vop.ElemI64}
	narrowInts = []vop.ElemKind{vop.ElemI8, vop.ElemI16, vop.ElemI32}
	floatElems = []vop.ElemKind{vop.ElemF32, vop.ElemF64}
	allElems   = append(append([]vop.ElemKind{}, intElems...), floatElems...)
)

type ruleSpec struct {
	m     vop.Mnemonic
	base  uint64
	l     backend.Layout
	elems []vop.ElemKind
}

// Vector encodings at the native width. MUL, MIN and MAX stop at 32-bit
// lanes and integer DIV has no vector form at all; those shapes reach the
// scratch fallback through their scalar rules below.
var vecRules = []ruleSpec{
	{vop.MnemAdd, 0x4e208400, backend.LayoutVecRRR, intElems},
	{vop.MnemSub, 0x6e208400, backend.LayoutVecRRR, intElems},
	{vop.MnemMul, 0x4e209c00, backend.LayoutVecRRR, narrowInts},
	{vop.MnemMin, 0x4e206c00, backend.LayoutVecRRR, narrowInts},
	{vop.MnemMax, 0x4e206400, backend.LayoutVecRRR, narrowInts},
	{vop.MnemAbs, 0x4e20b800, backend.LayoutVecRR, intElems},
	{vop.MnemNeg, 0x6e20b800, backend.LayoutVecRR, intElems},

	{vop.MnemAdd, 0x4e20d400, backend.LayoutVecRRR, floatElems},
	{vop.MnemSub, 0x4ea0d400, backend.LayoutVecRRR, floatElems},
	{vop.MnemMul, 0x6e20dc00, backend.LayoutVecRRR, floatElems},
	{vop.MnemDiv, 0x6e20fc00, backend.LayoutVecRRR, floatElems},
	{vop.MnemMin, 0x4ea0f400, backend.LayoutVecRRR, floatElems},
	{vop.MnemMax, 0x4e20f400, backend.LayoutVecRRR, floatElems},
	{vop.MnemAbs, 0x4ea0f800, backend.LayoutVecRR, floatElems},
	{vop.MnemNeg, 0x6ea0f800, backend.LayoutVecRR, floatElems},

	{vop.MnemAnd, 0x4e201c00, backend.LayoutVecRRR, allElems},
	{vop.MnemOr, 0x4ea01c00, backend.LayoutVecRRR, allElems},
	{vop.MnemXor, 0x6e201c00, backend.LayoutVecRRR, allElems},
	{vop.MnemAndNot, 0x4e601c00, backend.LayoutVecRRR, allElems},

	{vop.MnemShlImm, 0x4f005400, backend.LayoutVecRI, intElems},
	{vop.MnemShrImm, 0x6f000400, backend.LayoutVecRI, intElems},
	{vop.MnemSarImm, 0x4f000400, backend.LayoutVecRI, intElems},
	{vop.MnemShlVar, 0x6e204400, backend.LayoutVecRRR, intElems},

	{vop.MnemCmpEq, 0x6e208c00, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpNe, 0x4e208c00, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpGt, 0x4e203400, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpLt, 0x4e203c00, backend.LayoutVecRRR, intElems},
	{vop.MnemCmpEq, 0x4e20e400, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpNe, 0x4ea0e400, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpGt, 0x6ea0e400, backend.LayoutVecRRR, floatElems},
	{vop.MnemCmpLt, 0x6ea0ec00, backend.LayoutVecRRR, floatElems},

	{vop.MnemBlend, 0x6e601c00, backend.LayoutVecRRR, allElems},
	{vop.MnemRev, 0x4e200800, backend.LayoutVecRR, allElems},
	{vop.MnemMov, 0x4eb01c00, backend.LayoutVecRR, allElems},
	{vop.MnemBroadcast, 0x4e000c00, backend.LayoutVecFromGP, allElems},

	{vop.MnemCvtToInt, 0x4ea1b800, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI32, vop.ElemI64}},
	{vop.MnemCvtToFloat, 0x4e21d800, backend.LayoutVecRR, floatElems},

	{vop.MnemLoad, 0x3cc00000, backend.LayoutVecLoad, allElems},
	{vop.MnemStore, 0x3c800000, backend.LayoutVecStore, allElems},

	{vop.MnemRedMinU, 0x6e31a800, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI8}},
	{vop.MnemRedMaxU, 0x6e30a800, backend.LayoutVecRR, []vop.ElemKind{vop.ElemI8}},
}

// Scalar encodings on the general-register file, one element wide. Float
// shapes pass through the same file; their opcode bases differ so the words
// stay distinct.
var scalarRules = []ruleSpec{
	{vop.MnemAdd, 0x0b000000, backend.LayoutGPRR, intElems},
	{vop.MnemSub, 0x4b000000, backend.LayoutGPRR, intElems},
	{vop.MnemMul, 0x1b007c00, backend.LayoutGPRR, intElems},
	{vop.MnemDiv, 0x1ac00c00, backend.LayoutGPRR, intElems},
	{vop.MnemMin, 0x1ac04000, backend.LayoutGPRR, intElems},
	{vop.MnemMax, 0x1ac04400, backend.LayoutGPRR, intElems},
	{vop.MnemAbs, 0x5ac02000, backend.LayoutGPRR, intElems},
	{vop.MnemNeg, 0x4b000400, backend.LayoutGPRR, intElems},

	{vop.MnemAdd, 0x1e202800, backend.LayoutGPRR, floatElems},
	{vop.MnemSub, 0x1e203800, backend.LayoutGPRR, floatElems},
	{vop.MnemMul, 0x1e200800, backend.LayoutGPRR, floatElems},
	{vop.MnemDiv, 0x1e201800, backend.LayoutGPRR, floatElems},
	{vop.MnemMin, 0x1e205800, backend.LayoutGPRR, floatElems},
	{vop.MnemMax, 0x1e204800, backend.LayoutGPRR, floatElems},
	{vop.MnemAbs, 0x1e20c000, backend.LayoutGPRR, floatElems},
	{vop.MnemNeg, 0x1e214000, backend.LayoutGPRR, floatElems},

	{vop.MnemAnd, 0x0a000000, backend.LayoutGPRR, allElems},
	{vop.MnemOr, 0x2a000000, backend.LayoutGPRR, allElems},
	{vop.MnemXor, 0x4a000000, backend.LayoutGPRR, allElems},
	{vop.MnemAndNot, 0x0a200000, backend.LayoutGPRR, allElems},

	{vop.MnemShlImm, 0x53000000, backend.LayoutGPRI, intElems},
	{vop.MnemShrImm, 0x53400000, backend.LayoutGPRI, intElems},
	{vop.MnemSarImm, 0x13000000, backend.LayoutGPRI, intElems},
	{vop.MnemShlVar, 0x1ac02000, backend.LayoutGPRR, intElems},

	{vop.MnemCmpEq, 0x5a800000, backend.LayoutGPRR, intElems},
	{vop.MnemCmpNe, 0x5a900000, backend.LayoutGPRR, intElems},
	{vop.MnemCmpGt, 0x5aa00000, backend.LayoutGPRR, intElems},
	{vop.MnemCmpLt, 0x5ab00000, backend.LayoutGPRR, intElems},
	{vop.MnemCmpEq, 0x1e202010, backend.LayoutGPRR, floatElems},
	{vop.MnemCmpNe, 0x1e202020, backend.LayoutGPRR, floatElems},
	{vop.MnemCmpGt, 0x1e202030, backend.LayoutGPRR, floatElems},
	{vop.MnemCmpLt, 0x1e202040, backend.LayoutGPRR, floatElems},

	{vop.MnemCvtToInt, 0x1e380000, backend.LayoutGPRR, []vop.ElemKind{vop.ElemI32, vop.ElemI64}},
	{vop.MnemCvtToFloat, 0x1e220000, backend.LayoutGPRR, floatElems},
}

var gpLoadBases = map[vop.ElemKind]uint64{
	vop.ElemI8:  0x38400000,
	vop.ElemI16: 0x78400000,
	vop.ElemI32: 0xb8400000,
	vop.ElemI64: 0xf8400000,
	vop.ElemF32: 0xb8400000,
	vop.ElemF64: 0xf8400000,
}

var gpStoreBases = map[vop.ElemKind]uint64{
	vop.ElemI8:  0x38000000,
	vop.ElemI16: 0x78000000,
	vop.ElemI32: 0xb8000000,
	vop.ElemI64: 0xf8000000,
	vop.ElemF32: 0xb8000000,
	vop.ElemF64: 0xf8000000,
}

// New builds the target.
func New() (*backend.Backend, error) {
	b := backend.NewBuilder(caps(), encoder{})

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
	for e, base := range gpLoadBases {
		b.Scalar(vop.MnemLoad, e, base, backend.LayoutGPLoad)
	}
	for e, base := range gpStoreBases {
		b.Scalar(vop.MnemStore, e, base, backend.LayoutGPStore)
	}

	// Lane reversal at the pair width is the across-half idiom: reverse
	// each half into the opposite destination half.
	for _, e := range allElems {
		b.Composed(vop.MnemRev, e, 2*vectorBits, vop.MnemRev, true)
	}

	b.Scalar(vop.MnemMovToGP, vop.ElemI8, 0x0e003c00, backend.LayoutGPFromVec)
	b.Scalar(vop.MnemLoadConst, vop.ElemI64, 0xd2800000, backend.LayoutGPConst)
	b.Scalar(vop.MnemLoadConstK, vop.ElemI64, 0xf2800000, backend.LayoutGPConst)
	b.Scalar(vop.MnemAddAddr, vop.ElemI64, 0x8b000000, backend.LayoutGPRR)
	b.Scalar(vop.MnemAndAddr, vop.ElemI64, 0x8a000000, backend.LayoutGPRR)
	b.Scalar(vop.MnemOrAddr, vop.ElemI64, 0xaa000000, backend.LayoutGPRR)
	b.Scalar(vop.MnemXorAddr, vop.ElemI64, 0xca000000, backend.LayoutGPRR)
	b.Scalar(vop.MnemBrEq, vop.ElemI64, 0x36000000, backend.LayoutBranch)
	b.Scalar(vop.MnemBrNe, vop.ElemI64, 0x37000000, backend.LayoutBranch)

	return b.Build()
}
