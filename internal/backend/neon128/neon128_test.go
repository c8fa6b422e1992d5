package neon128

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge/vop"
)

func shape(e vop.ElemKind, bits int) vop.Shape {
	return vop.Shape{Elem: e, VecBits: uint16(bits)}
}

func TestCaps(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	c := be.Caps()
	require.Equal(t, "neon128", c.Name)
	require.Equal(t, "load-store", c.Arch.String())
	require.Equal(t, 128, c.VectorBits)
	require.Equal(t, 4, c.WordBytes)
	require.True(t, c.ThreeOperand)
	require.False(t, c.DistinctDest)
	require.True(t, c.HasBlend)
	require.True(t, c.BlendMaskInDst)
	require.False(t, c.HasMoveMask)
	require.Equal(t, uint8(16), c.ConstChunkBits)
	require.Equal(t, uint8(8), c.BranchCmpBits)
	require.Equal(t, uint8(9), c.Addr.DispBits)
	require.Equal(t, uint8(0), c.Addr.MaxScale)
}

// The table's character: wide multiplies, 64-bit lane min/max and integer
// division have no vector encoding and fall back through their scalar rules;
// float division is native; lane reversal composes at the pair width.
func TestTableCharacter(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	require.True(t, be.HasNative(vop.MnemMul, shape(vop.ElemI32, 128)))
	require.False(t, be.HasNative(vop.MnemMul, shape(vop.ElemI64, 128)))
	require.False(t, be.HasNative(vop.MnemMin, shape(vop.ElemI64, 128)))
	require.False(t, be.HasNative(vop.MnemDiv, shape(vop.ElemI32, 128)))
	require.True(t, be.HasNative(vop.MnemDiv, shape(vop.ElemF32, 128)))
	require.True(t, be.HasNative(vop.MnemDiv, vop.Scalar(vop.ElemI32)))
	require.True(t, be.HasNative(vop.MnemShlVar, shape(vop.ElemI16, 128)))

	require.False(t, be.HasNative(vop.MnemMoveMask, shape(vop.ElemI8, 128)))
	require.True(t, be.HasNative(vop.MnemRedMinU, shape(vop.ElemI8, 128)))
	require.True(t, be.HasNative(vop.MnemRedMaxU, shape(vop.ElemI8, 128)))
	require.True(t, be.HasNative(vop.MnemMovToGP, vop.Scalar(vop.ElemI8)))

	r, ok := be.Rule(vop.MnemRev, shape(vop.ElemF32, 256))
	require.True(t, ok)
	require.Equal(t, vop.MnemRev, r.HalfMnemonic)
	require.True(t, r.SwapHalves)
}

func TestEncodeWords(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	mem := func(base vop.Register, disp int64) vop.MemoryOperand {
		m, err := vop.NewMem(base, disp)
		require.NoError(t, err)
		return m
	}

	tests := []struct {
		name string
		inst vop.Inst
		want uint64
	}{
		{
			"vector add",
			vop.Inst{Mnemonic: vop.MnemAdd, Shape: shape(vop.ElemI32, 128), Dst: vop.V0, Src1: vop.V1, Src2: vop.V2},
			0x4ea28420,
		},
		{
			"vector load",
			vop.Inst{Mnemonic: vop.MnemLoad, Shape: shape(vop.ElemI32, 128), Dst: vop.V1, Mem: mem(vop.R2, 16), HasMem: true},
			0x3cc10041,
		},
		{
			"negative displacement wraps into disp9",
			vop.Inst{Mnemonic: vop.MnemLoad, Shape: shape(vop.ElemI32, 128), Dst: vop.V0, Mem: mem(vop.R1, -16), HasMem: true},
			0x3cdf0020,
		},
		{
			"constant chunk",
			vop.Inst{Mnemonic: vop.MnemLoadConst, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 0x2345, HasImm: true},
			0xd28468ad,
		},
		{
			"constant keep at halfword one",
			vop.Inst{Mnemonic: vop.MnemLoadConstK, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 1, HasImm: true, ImmShift: 16},
			0xf2a0002d,
		},
		{
			"lane zero extract",
			vop.Inst{Mnemonic: vop.MnemMovToGP, Shape: vop.Scalar(vop.ElemI8), Dst: vop.R13, Src1: vop.V30},
			0x0e003fcd,
		},
		{
			"scalar shift immediate",
			vop.Inst{Mnemonic: vop.MnemShlImm, Shape: vop.Scalar(vop.ElemI32), Dst: vop.R1, Src1: vop.R2, Imm: 7, HasImm: true},
			0x53870041,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, err := be.EncodeInst(&tc.inst)
			require.NoError(t, err)
			require.Equal(t, tc.want, w)
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	i32 := shape(vop.ElemI32, 128)

	t.Run("no scaled addressing", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V0, HasMem: true,
			Mem: vop.MemoryOperand{Mode: vop.AddrBaseIndexDisp, Base: vop.R1, Index: vop.R2, Scale: 4}}
		_, err := be.EncodeInst(&inst)
		require.ErrorIs(t, err, vop.ErrBadAddress)
		require.ErrorContains(t, err, "base+index+disp on")
	})

	t.Run("displacement beyond disp9", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoad, Shape: i32, Dst: vop.V0, HasMem: true,
			Mem: vop.MemoryOperand{Mode: vop.AddrBaseDisp, Base: vop.R1, Disp: 256}}
		_, err := be.EncodeInst(&inst)
		require.ErrorContains(t, err, "exceeds 9 bits")
	})

	t.Run("constant chunk too wide", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoadConst, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 0x10000, HasImm: true}
		_, err := be.EncodeInst(&inst)
		require.ErrorContains(t, err, "exceeds 16 bits")
	})

	t.Run("chunk position off the halfword grid", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemLoadConstK, Shape: vop.Scalar(vop.ElemI64), Dst: vop.R13, Imm: 1, HasImm: true, ImmShift: 8}
		_, err := be.EncodeInst(&inst)
		require.ErrorContains(t, err, "chunk position 8")
	})

	t.Run("branch compare beyond a byte", func(t *testing.T) {
		inst := vop.Inst{Mnemonic: vop.MnemBrEq, Shape: vop.Scalar(vop.ElemI64), Src1: vop.R13, Imm: 0x100, HasImm: true}
		_, err := be.EncodeInst(&inst)
		require.ErrorContains(t, err, "exceeds 8 bits")
	})
}

func TestPatchBranch(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	inst := vop.Inst{Mnemonic: vop.MnemBrEq, Shape: vop.Scalar(vop.ElemI64), Src1: vop.R13, Imm: 2, HasImm: true}
	w, err := be.EncodeInst(&inst)
	require.NoError(t, err)
	require.Equal(t, uint64(0x3610000d), w)

	p, err := be.PatchBranch(w, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(0x361000ad), p)

	p, err = be.PatchBranch(w, -1)
	require.NoError(t, err)
	require.Equal(t, uint64(0x3617ffed), p)

	_, err = be.PatchBranch(w, 8192)
	require.ErrorContains(t, err, "exceeds 14 bits")
}
