package avx256

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
	require.Equal(t, "avx256", c.Name)
	require.Equal(t, "mem-operand", c.Arch.String())
	require.Equal(t, 256, c.VectorBits)
	require.Equal(t, 8, c.WordBytes)
	require.True(t, c.ThreeOperand)
	require.False(t, c.DistinctDest)
	require.True(t, c.HasBlend)
	require.False(t, c.BlendMaskInDst)
	require.True(t, c.HasMoveMask)
	require.Equal(t, uint8(32), c.ConstChunkBits)
	require.Equal(t, uint8(16), c.BranchCmpBits)
}

// The table's character: a four-register blend, variable shifts for 32- and
// 64-bit lanes only, wide multiplies still absent, and lane reversal
// composed at the pair width.
func TestTableCharacter(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	r, ok := be.Rule(vop.MnemBlend, shape(vop.ElemI8, 256))
	require.True(t, ok)
	require.Equal(t, "vec-rrrr", r.Template.Layout.String())

	require.True(t, be.HasNative(vop.MnemShlVar, shape(vop.ElemI32, 256)))
	require.True(t, be.HasNative(vop.MnemShlVar, shape(vop.ElemI64, 256)))
	require.False(t, be.HasNative(vop.MnemShlVar, shape(vop.ElemI16, 256)))

	require.False(t, be.HasNative(vop.MnemMul, shape(vop.ElemI64, 256)))
	require.False(t, be.HasNative(vop.MnemDiv, shape(vop.ElemI32, 256)))
	require.True(t, be.HasNative(vop.MnemMoveMask, shape(vop.ElemI8, 256)))

	rr, ok := be.Rule(vop.MnemRev, shape(vop.ElemF64, 512))
	require.True(t, ok)
	require.Equal(t, vop.MnemRev, rr.HalfMnemonic)
	require.True(t, rr.SwapHalves)
}

func TestEncodeWords(t *testing.T) {
	be, err := New()
	require.NoError(t, err)

	tests := []struct {
		name string
		inst vop.Inst
		want uint64
	}{
		{
			"four register blend",
			vop.Inst{Mnemonic: vop.MnemBlend, Shape: shape(vop.ElemI8, 256), Dst: vop.V0, Src1: vop.V1, Src2: vop.V2, Src3: vop.V3},
			0x4c00044300000000,
		},
		{
			"variable shift",
			vop.Inst{Mnemonic: vop.MnemShlVar, Shape: shape(vop.ElemI64, 256), Dst: vop.V1, Src1: vop.V2, Src2: vop.V3},
			0x47c0886000000000,
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
