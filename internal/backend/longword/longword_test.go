package longword

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

func tmpl(base uint64, l backend.Layout) backend.Template {
	return backend.Template{Base: base, Layout: l}
}

func TestEncodeRegisterForms(t *testing.T) {
	i8 := vop.Shape{Elem: vop.ElemI8, VecBits: 128}
	i16 := vop.Shape{Elem: vop.ElemI16, VecBits: 128}
	i32 := vop.Shape{Elem: vop.ElemI32, VecBits: 128}
	i64 := vop.Shape{Elem: vop.ElemI64, VecBits: 128}
	f32 := vop.Shape{Elem: vop.ElemF32, VecBits: 128}
	f64 := vop.Shape{Elem: vop.ElemF64, VecBits: 128}

	tests := []struct {
		name string
		t    backend.Template
		inst vop.Inst
		want uint64
	}{
		{
			"three register",
			tmpl(0x0a00000000000000, backend.LayoutVecRRR),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: i32, Dst: vop.V3, Src1: vop.V5, Src2: vop.V9},
			0x0a81952000000000,
		},
		{
			"four register",
			tmpl(0x0a00000000000000, backend.LayoutVecRRRR),
			vop.Inst{Mnemonic: vop.MnemBlend, Shape: i32, Dst: vop.V3, Src1: vop.V5, Src2: vop.V9, Src3: vop.V1},
			0x0a81952100000000,
		},
		{
			"unary",
			tmpl(0, backend.LayoutVecRR),
			vop.Inst{Mnemonic: vop.MnemAbs, Shape: f64, Dst: vop.V2, Src1: vop.V7},
			0x00c11c0000000000,
		},
		{
			"float shares the int size tag",
			tmpl(0, backend.LayoutVecRR),
			vop.Inst{Mnemonic: vop.MnemAbs, Shape: f32, Dst: vop.V1, Src1: vop.V2},
			0x0080880000000000,
		},
		{
			"shift immediate",
			tmpl(0, backend.LayoutVecRI),
			vop.Inst{Mnemonic: vop.MnemShlImm, Shape: i16, Dst: vop.V0, Src1: vop.V1, Imm: 9, HasImm: true},
			0x0040040000000009,
		},
		{
			"broadcast from gp",
			tmpl(0, backend.LayoutVecFromGP),
			vop.Inst{Mnemonic: vop.MnemBroadcast, Shape: i64, Dst: vop.V4, Src1: vop.R2},
			0x00c2080000000000,
		},
		{
			"lane extract to gp",
			tmpl(0, backend.LayoutGPFromVec),
			vop.Inst{Mnemonic: vop.MnemMovToGP, Shape: i8, Dst: vop.R5, Src1: vop.V3},
			0x00028c0000000000,
		},
		{
			"gp three operand",
			tmpl(0, backend.LayoutGPRR),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R1, Src1: vop.R2, Src2: vop.R3},
			0x00c0886000000000,
		},
		{
			"gp unary leaves src2 clear",
			tmpl(0, backend.LayoutGPRR),
			vop.Inst{Mnemonic: vop.MnemNeg, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R1, Src1: vop.R2},
			0x00c0880000000000,
		},
		{
			"gp alu register form",
			tmpl(0, backend.LayoutGPRM),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: vop.Scalar(vop.ElemI32), Dst: vop.R1, Src1: vop.R2, Src2: vop.R3},
			0x0080886000000000,
		},
		{
			"gp shift immediate",
			tmpl(0, backend.LayoutGPRI),
			vop.Inst{Mnemonic: vop.MnemShlImm, Shape: vop.Scalar(vop.ElemI32), Dst: vop.R1, Src1: vop.R1, Imm: 31, HasImm: true},
			0x008084000000001f,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, err := Encoder{}.Encode(tc.t, &tc.inst)
			require.NoError(t, err)
			require.Equal(t, tc.want, w)
		})
	}
}

func TestEncodeMemoryForms(t *testing.T) {
	i8 := vop.Shape{Elem: vop.ElemI8, VecBits: 128}
	i32 := vop.Shape{Elem: vop.ElemI32, VecBits: 128}

	t.Run("negative displacement", func(t *testing.T) {
		m, err := vop.NewMem(vop.R2, -8)
		require.NoError(t, err)
		inst := vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V4, Mem: m, HasMem: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutVecLoad), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x00820800fffffff8), w)
	})

	t.Run("scaled index", func(t *testing.T) {
		m, err := vop.NewMemIndexed(vop.R1, vop.R7, 4, 0x40)
		require.NoError(t, err)
		inst := vop.Inst{Mnemonic: vop.MnemLoad, Shape: i8, Dst: vop.V0, Mem: m, HasMem: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutVecLoad), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x002004e000000040), w)
	})

	t.Run("store source in the dst field", func(t *testing.T) {
		m, err := vop.NewMem(vop.R3, 16)
		require.NoError(t, err)
		inst := vop.Inst{Mnemonic: vop.MnemStore, Shape: i32, Src1: vop.V5, Mem: m, HasMem: true, MemIsDst: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutVecStore), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x00828c0000000010), w)
	})

	t.Run("gp element load", func(t *testing.T) {
		m, err := vop.NewMem(vop.R1, 0)
		require.NoError(t, err)
		inst := vop.Inst{Mnemonic: vop.MnemLoad, Shape: vop.Scalar(vop.ElemI16), Dst: vop.R6, Mem: m, HasMem: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutGPLoad), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x0043040000000000), w)
	})

	t.Run("gp alu memory source", func(t *testing.T) {
		m, err := vop.NewMem(vop.R4, 0x20)
		require.NoError(t, err)
		inst := vop.Inst{Mnemonic: vop.MnemAdd, Shape: vop.Scalar(vop.ElemI32), Dst: vop.R1, Mem: m, HasMem: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutGPRM), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x0080900000000020), w)
	})
}

func TestEncodeConstantAndBranch(t *testing.T) {
	addr := vop.Scalar(vop.ElemI64)

	t.Run("low chunk", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoadConst, Shape: addr, Dst: vop.R13, Imm: 0xdeadbeef, HasImm: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutGPConst), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x00068000deadbeef), w)
	})

	t.Run("high chunk sets the position bit", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoadConstK, Shape: addr, Dst: vop.R13, Imm: 0x1234, HasImm: true, ImmShift: 32}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutGPConst), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x0006800100001234), w)
	})

	t.Run("branch leaves the delta clear", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemBrEq, Shape: addr, Src1: vop.R13, Imm: 0xffff, HasImm: true}
		w, err := Encoder{}.Encode(tmpl(0, backend.LayoutBranch), &inst)
		require.NoError(t, err)
		require.Equal(t, uint64(0x00003400ffff0000), w)
	})
}

func TestPatchBranch(t *testing.T) {
	const br = uint64(0x00003400ffff0000)

	w, err := Encoder{}.PatchBranch(br, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(0x00003400ffff0005), w)

	w, err = Encoder{}.PatchBranch(br, -3)
	require.NoError(t, err)
	require.Equal(t, uint64(0x00003400fffffffd), w)

	w, err = Encoder{}.PatchBranch(br, -0x8000)
	require.NoError(t, err)
	require.Equal(t, uint64(0x00003400ffff8000), w)

	_, err = Encoder{}.PatchBranch(br, 0x8000)
	require.ErrorContains(t, err, "exceeds 16 bits")
}

func TestEncodeErrors(t *testing.T) {
	i16 := vop.Shape{Elem: vop.ElemI16, VecBits: 128}
	i32 := vop.Shape{Elem: vop.ElemI32, VecBits: 128}

	tests := []struct {
		name string
		t    backend.Template
		inst vop.Inst
		err  error
		msg  string
	}{
		{
			"gp register in a vector field",
			tmpl(0, backend.LayoutVecRRR),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: i32, Dst: vop.R1, Src1: vop.V1, Src2: vop.V2},
			vop.ErrBadOperand, "dst of",
		},
		{
			"pair register in a single field",
			tmpl(0, backend.LayoutVecRR),
			vop.Inst{Mnemonic: vop.MnemAbs, Shape: i32, Dst: vop.V0, Src1: vop.VPair(vop.V2, vop.V3)},
			vop.ErrBadOperand, "src1 of",
		},
		{
			"register form missing src2",
			tmpl(0, backend.LayoutGPRM),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: vop.Scalar(vop.ElemI32), Dst: vop.R1, Src1: vop.R2},
			vop.ErrBadOperand, "src2 of",
		},
		{
			"load without memory",
			tmpl(0, backend.LayoutVecLoad),
			vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V0},
			vop.ErrBadOperand, "without memory operand",
		},
		{
			"unencodable scale",
			tmpl(0, backend.LayoutVecLoad),
			vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V0, HasMem: true,
				Mem: vop.MemoryOperand{Mode: vop.AddrBaseIndexDisp, Base: vop.R1, Index: vop.R2, Scale: 3}},
			vop.ErrBadAddress, "scale 3",
		},
		{
			"displacement too wide",
			tmpl(0, backend.LayoutVecLoad),
			vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V0, HasMem: true,
				Mem: vop.MemoryOperand{Mode: vop.AddrBaseDisp, Base: vop.R1, Disp: 1 << 31}},
			vop.ErrBadAddress, "exceeds 32 bits",
		},
		{
			"shift beyond the element",
			tmpl(0, backend.LayoutVecRI),
			vop.Inst{Mnemonic: vop.MnemShlImm, Shape: i16, Dst: vop.V0, Src1: vop.V1, Imm: 16, HasImm: true},
			vop.ErrBadOperand, "out of range",
		},
		{
			"negative shift",
			tmpl(0, backend.LayoutVecRI),
			vop.Inst{Mnemonic: vop.MnemShlImm, Shape: i16, Dst: vop.V0, Src1: vop.V1, Imm: -1, HasImm: true},
			vop.ErrBadOperand, "out of range",
		},
		{
			"oversized constant chunk",
			tmpl(0, backend.LayoutGPConst),
			vop.Inst{Mnemonic: vop.MnemLoadConst, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 1 << 32, HasImm: true},
			vop.ErrBadOperand, "exceeds 32 bits",
		},
		{
			"misaligned chunk position",
			tmpl(0, backend.LayoutGPConst),
			vop.Inst{Mnemonic: vop.MnemLoadConstK, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 1, HasImm: true, ImmShift: 16},
			vop.ErrBadOperand, "chunk position 16",
		},
		{
			"oversized branch compare",
			tmpl(0, backend.LayoutBranch),
			vop.Inst{Mnemonic: vop.MnemBrEq, Shape: vop.Scalar(vop.ElemI64), Src1: vop.R13, Imm: 0x10000, HasImm: true},
			vop.ErrBadOperand, "exceeds 16 bits",
		},
		{
			"unknown layout",
			tmpl(0, backend.LayoutNone),
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: i32, Dst: vop.V0, Src1: vop.V1, Src2: vop.V2},
			vop.ErrUnsupported, "layout none",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encoder{}.Encode(tc.t, &tc.inst)
			require.ErrorIs(t, err, tc.err)
			require.ErrorContains(t, err, tc.msg)
		})
	}
}
