package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge/vop"
)

type nopEncoder struct{}

func (nopEncoder) Encode(t Template, _ *vop.Inst) (uint64, error)   { return t.Base, nil }
func (nopEncoder) PatchBranch(word uint64, _ int64) (uint64, error) { return word, nil }

func testCaps() Caps {
	return Caps{
		Name:           "test128",
		Arch:           ArchLoadStore,
		VectorBits:     128,
		WordBytes:      4,
		ThreeOperand:   true,
		HasMoveMask:    true,
		ConstChunkBits: 16,
		BranchCmpBits:  8,
		Addr:           vop.AddrCaps{DispBits: 9},
	}
}

// minimalBuilder registers the selector-internal scalars and the vector move
// Build always insists on, but no mask-test rules.
func minimalBuilder(c Caps) *Builder {
	b := NewBuilder(c, nopEncoder{})
	b.Scalar(vop.MnemLoadConst, vop.ElemI64, 0x10, LayoutGPConst)
	b.Scalar(vop.MnemLoadConstK, vop.ElemI64, 0x11, LayoutGPConst)
	b.Scalar(vop.MnemAddAddr, vop.ElemI64, 0x12, LayoutGPRR)
	b.Scalar(vop.MnemAndAddr, vop.ElemI64, 0x13, LayoutGPRR)
	b.Scalar(vop.MnemOrAddr, vop.ElemI64, 0x14, LayoutGPRR)
	b.Scalar(vop.MnemXorAddr, vop.ElemI64, 0x15, LayoutGPRR)
	b.Scalar(vop.MnemBrEq, vop.ElemI64, 0x16, LayoutBranch)
	b.Scalar(vop.MnemBrNe, vop.ElemI64, 0x17, LayoutBranch)
	b.Native(vop.MnemMov, vop.ElemI8, c.VectorBits, 0x19, LayoutVecRR)
	return b
}

// testBuilder is minimalBuilder plus the mask-test surface the capabilities
// call for, so it builds as-is.
func testBuilder(c Caps) *Builder {
	b := minimalBuilder(c)
	if c.HasMoveMask {
		b.Native(vop.MnemMoveMask, vop.ElemI8, c.VectorBits, 0x18, LayoutGPFromVec)
	} else {
		b.Native(vop.MnemRedMinU, vop.ElemI8, c.VectorBits, 0x1a, LayoutVecRR)
		b.Native(vop.MnemRedMaxU, vop.ElemI8, c.VectorBits, 0x1b, LayoutVecRR)
		b.Scalar(vop.MnemMovToGP, vop.ElemI8, 0x1c, LayoutGPFromVec)
	}
	return b
}

func TestCapsDerived(t *testing.T) {
	c := testCaps()
	require.Equal(t, 32, c.WordBits())
	require.Equal(t, 16, c.NativeBytes())
	require.Equal(t, 256, c.PairBits())
	require.Equal(t, vop.Shape{Elem: vop.ElemI16, VecBits: 128}, c.NativeShape(vop.ElemI16))
}

func TestCapsValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Caps)
		msg  string
	}{
		{"vector width", func(c *Caps) { c.VectorBits = 192 }, "vector width"},
		{"word size", func(c *Caps) { c.WordBytes = 2 }, "word size"},
		{"constant chunk", func(c *Caps) { c.ConstChunkBits = 8 }, "constant chunk"},
		{"branch compare", func(c *Caps) { c.BranchCmpBits = 0 }, "branch compare width"},
		{"displacement", func(c *Caps) { c.Addr.DispBits = 0 }, "no displacement field"},
		{"distinct dest", func(c *Caps) {
			c.ThreeOperand = false
			c.DistinctDest = true
		}, "distinct-dest requires three-operand"},
		{"blend discipline", func(c *Caps) {
			c.ThreeOperand = false
			c.HasBlend = true
			c.BlendMaskInDst = false
		}, "mask in dst"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testCaps()
			tc.mut(&c)
			_, err := NewBuilder(c, nopEncoder{}).Build()
			require.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestBuilderDuplicateRule(t *testing.T) {
	b := testBuilder(testCaps())
	b.Native(vop.MnemAdd, vop.ElemI32, 128, 1, LayoutVecRRR)
	b.Native(vop.MnemAdd, vop.ElemI32, 128, 2, LayoutVecRRR)
	_, err := b.Build()
	require.ErrorContains(t, err, "duplicate rule")
}

func TestBuilderRegistrationErrors(t *testing.T) {
	b := testBuilder(testCaps())
	b.Native(vop.MnemAdd, vop.ElemI32, 96, 1, LayoutVecRRR)
	_, err := b.Build()
	require.ErrorContains(t, err, "not a power of two")

	b = testBuilder(testCaps())
	b.Native(vop.MnemAdd, vop.ElemI32, 128, 1, LayoutNone)
	_, err = b.Build()
	require.ErrorContains(t, err, "no layout")

	// The first registration error wins.
	b = testBuilder(testCaps())
	b.Native(vop.MnemAdd, vop.ElemI32, 96, 1, LayoutVecRRR)
	b.Native(vop.MnemSub, vop.ElemI32, 128, 1, LayoutNone)
	_, err = b.Build()
	require.ErrorContains(t, err, "not a power of two")
}

func TestBuilderVectorRuleWidth(t *testing.T) {
	b := testBuilder(testCaps())
	b.Native(vop.MnemAdd, vop.ElemI32, 64, 1, LayoutVecRRR)
	_, err := b.Build()
	require.ErrorContains(t, err, "neither scalar nor native width")
}

func TestBuilderComposedRules(t *testing.T) {
	b := testBuilder(testCaps())
	b.Composed(vop.MnemRev, vop.ElemI32, 128, vop.MnemRev, true)
	_, err := b.Build()
	require.ErrorContains(t, err, "not the register-pair width")

	b = testBuilder(testCaps())
	b.Composed(vop.MnemRev, vop.ElemI32, 256, vop.MnemRev, true)
	_, err = b.Build()
	require.ErrorContains(t, err, "no native encoding")

	b = testBuilder(testCaps())
	b.Native(vop.MnemRev, vop.ElemI32, 128, 3, LayoutVecRR)
	b.Composed(vop.MnemRev, vop.ElemI32, 256, vop.MnemRev, true)
	be, err := b.Build()
	require.NoError(t, err)
	r, ok := be.Rule(vop.MnemRev, vop.Shape{Elem: vop.ElemI32, VecBits: 256})
	require.True(t, ok)
	require.Equal(t, RuleComposed, r.Kind)
	require.Equal(t, vop.MnemRev, r.HalfMnemonic)
	require.True(t, r.SwapHalves)
}

func TestBuilderFallbackScaffolding(t *testing.T) {
	scaffold := func(withScalar, withElemLS, withVecLS bool) error {
		b := testBuilder(testCaps())
		b.Native(vop.MnemAdd, vop.ElemI32, 128, 1, LayoutVecRRR)
		if withScalar {
			b.Scalar(vop.MnemAdd, vop.ElemI32, 2, LayoutGPRR)
		}
		if withElemLS {
			b.Scalar(vop.MnemLoad, vop.ElemI32, 3, LayoutGPLoad)
			b.Scalar(vop.MnemStore, vop.ElemI32, 4, LayoutGPStore)
		}
		if withVecLS {
			b.Native(vop.MnemLoad, vop.ElemI32, 128, 5, LayoutVecLoad)
			b.Native(vop.MnemStore, vop.ElemI32, 128, 6, LayoutVecStore)
		}
		_, err := b.Build()
		return err
	}

	require.ErrorContains(t, scaffold(false, true, true), "missing scalar fallback rule")
	require.ErrorContains(t, scaffold(true, false, true), "missing element load rule")
	require.ErrorContains(t, scaffold(true, true, false), "missing vector load rule")
	require.NoError(t, scaffold(true, true, true))
}

func TestBuilderMaskScaffolding(t *testing.T) {
	_, err := minimalBuilder(testCaps()).Build()
	require.ErrorContains(t, err, "missing mask test rule")

	// Without move-mask the builder needs both byte reductions and the
	// lane-zero extract; one reduction alone is not enough.
	c := testCaps()
	c.HasMoveMask = false
	b := minimalBuilder(c)
	b.Native(vop.MnemRedMinU, vop.ElemI8, 128, 0x1a, LayoutVecRR)
	_, err = b.Build()
	require.ErrorContains(t, err, "missing mask test rule")

	_, err = testBuilder(c).Build()
	require.NoError(t, err)
}

func TestBuilderVectorMoveRequirement(t *testing.T) {
	c := testCaps()
	b := NewBuilder(c, nopEncoder{})
	b.Scalar(vop.MnemLoadConst, vop.ElemI64, 0x10, LayoutGPConst)
	b.Scalar(vop.MnemLoadConstK, vop.ElemI64, 0x11, LayoutGPConst)
	b.Scalar(vop.MnemAddAddr, vop.ElemI64, 0x12, LayoutGPRR)
	b.Scalar(vop.MnemAndAddr, vop.ElemI64, 0x13, LayoutGPRR)
	b.Scalar(vop.MnemOrAddr, vop.ElemI64, 0x14, LayoutGPRR)
	b.Scalar(vop.MnemXorAddr, vop.ElemI64, 0x15, LayoutGPRR)
	b.Scalar(vop.MnemBrEq, vop.ElemI64, 0x16, LayoutBranch)
	b.Scalar(vop.MnemBrNe, vop.ElemI64, 0x17, LayoutBranch)
	b.Native(vop.MnemMoveMask, vop.ElemI8, 128, 0x18, LayoutGPFromVec)
	_, err := b.Build()
	require.ErrorContains(t, err, "missing vector move rule")
}

func TestBuilderBlendRequirement(t *testing.T) {
	c := testCaps()
	c.HasBlend = true
	_, err := testBuilder(c).Build()
	require.ErrorContains(t, err, "missing blend rule")

	b := testBuilder(c)
	b.Native(vop.MnemBlend, vop.ElemI8, 128, 0x20, LayoutVecRRRR)
	_, err = b.Build()
	require.NoError(t, err)
}

func TestBackendTable(t *testing.T) {
	be, err := testBuilder(testCaps()).Build()
	require.NoError(t, err)

	s := vop.Shape{Elem: vop.ElemI8, VecBits: 128}
	require.True(t, be.HasNative(vop.MnemMov, s))
	require.False(t, be.HasNative(vop.MnemAdd, s))

	r, ok := be.Rule(vop.MnemMov, s)
	require.True(t, ok)
	require.Equal(t, Template{Base: 0x19, Layout: LayoutVecRR}, r.Template)

	require.Equal(t, 10, be.RuleCount())
	n := 0
	be.Rules(func(RuleKey, EncodingRule) { n++ })
	require.Equal(t, be.RuleCount(), n)

	w, err := be.EncodeInst(&vop.Inst{Mnemonic: vop.MnemMov, Shape: s, Dst: vop.V0, Src1: vop.V1})
	require.NoError(t, err)
	require.Equal(t, uint64(0x19), w)

	_, err = be.EncodeInst(&vop.Inst{Mnemonic: vop.MnemAdd, Shape: s})
	require.ErrorIs(t, err, vop.ErrUnsupported)
	require.ErrorContains(t, err, "no encoding")
}

func TestLayoutNames(t *testing.T) {
	require.Equal(t, "vec-rrr", LayoutVecRRR.String())
	require.Equal(t, "gp-rm", LayoutGPRM.String())
	require.Equal(t, "unknown", Layout(0xfe).String())
}

func TestArchNames(t *testing.T) {
	require.Equal(t, "load-store", ArchLoadStore.String())
	require.Equal(t, "mem-operand", ArchMemOperand.String())
	require.Equal(t, "unknown", Arch(9).String())
}
