package vforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge/vop"
)

func shape(t *testing.T, e vop.ElemKind, bits int) vop.Shape {
	t.Helper()
	s, err := vop.NewShape(e, bits)
	require.NoError(t, err)
	return s
}

func TestTargetNames(t *testing.T) {
	for _, tc := range []struct {
		target Target
		name   string
	}{
		{TargetNeon128, "neon128"},
		{TargetSSE128, "sse128"},
		{TargetAVX256, "avx256"},
		{TargetVEX512, "vex512"},
		{Target(42), "unknown"},
	} {
		require.Equal(t, tc.name, tc.target.String())
	}
}

func TestParseTarget(t *testing.T) {
	for _, want := range Targets() {
		got, err := ParseTarget(want.String())
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseTarget("mmx64")
	require.EqualError(t, err, `unknown target "mmx64"`)
}

func TestDetectTarget(t *testing.T) {
	detected := DetectTarget()
	require.Contains(t, Targets(), detected)

	// Whatever the host is, the detected target must build a context.
	ctx, err := NewContext(nil)
	require.NoError(t, err)
	require.Equal(t, detected, ctx.Target())
}

func TestNewContextAllTargets(t *testing.T) {
	for _, target := range Targets() {
		target := target
		t.Run(target.String(), func(t *testing.T) {
			ctx, err := NewContext(NewConfig().WithTarget(target))
			require.NoError(t, err)
			require.Equal(t, target, ctx.Target())
			require.Positive(t, ctx.VectorBits())
			require.Positive(t, ctx.ScratchBytes())

			p, err := ctx.Add(vop.Scalable(vop.ElemI32), vop.V0, vop.V1, vop.V2)
			require.NoError(t, err)
			require.Equal(t, vop.PathNative, p.Path)
			require.Equal(t, ctx.VectorBits(), int(p.Shape.VecBits))

			require.NoError(t, ctx.Finalize())
			require.Equal(t, p.WordCount()*ctx.WordBytes(), ctx.Len())
			require.Len(t, ctx.Bytes(), ctx.Len())
			require.Equal(t, p.WordCount(), strings.Count(ctx.Dump(), "\n"))
		})
	}
}

func TestClassifyAcrossTargets(t *testing.T) {
	neon, err := NewContext(NewConfig().WithTarget(TargetNeon128))
	require.NoError(t, err)
	sse, err := NewContext(NewConfig().WithTarget(TargetSSE128))
	require.NoError(t, err)

	// Integer division has no vector form anywhere.
	path, err := neon.Classify(vop.MnemDiv, shape(t, vop.ElemI32, 128))
	require.NoError(t, err)
	require.Equal(t, vop.PathFallback, path)

	// Double-width reversal splits into swapped halves on one target and
	// routes through scratch on the other.
	path, err = neon.Classify(vop.MnemRev, shape(t, vop.ElemF32, 256))
	require.NoError(t, err)
	require.Equal(t, vop.PathPair, path)

	path, err = sse.Classify(vop.MnemRev, shape(t, vop.ElemF32, 256))
	require.NoError(t, err)
	require.Equal(t, vop.PathFallback, path)
}

func TestContextLabels(t *testing.T) {
	ctx, err := NewContext(NewConfig().WithTarget(TargetSSE128))
	require.NoError(t, err)

	top := ctx.NewLabel()
	require.NoError(t, ctx.Bind(top))

	s := vop.Scalable(vop.ElemI32)
	_, err = ctx.CmpGt(s, vop.V3, vop.V1, vop.V2)
	require.NoError(t, err)
	_, err = ctx.JumpIfMask(vop.MaskAny, s, vop.V3, top)
	require.NoError(t, err)

	off, ok := ctx.LabelOffset(top)
	require.True(t, ok)
	require.Zero(t, off)
	require.NoError(t, ctx.Finalize())
}

func TestFinalizeUnboundLabel(t *testing.T) {
	ctx, err := NewContext(NewConfig().WithTarget(TargetNeon128))
	require.NoError(t, err)

	exit := ctx.NewLabel()
	s := vop.Scalable(vop.ElemI8)
	_, err = ctx.CmpEq(s, vop.V2, vop.V0, vop.V1)
	require.NoError(t, err)
	_, err = ctx.JumpIfMask(vop.MaskAll, s, vop.V2, exit)
	require.NoError(t, err)

	require.Error(t, ctx.Finalize())
	require.NoError(t, ctx.Bind(exit))
	require.NoError(t, ctx.Finalize())
}
