package vop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterConstruction(t *testing.T) {
	require.True(t, RegNone.IsNone())
	require.False(t, V0.IsNone())

	require.Equal(t, RegClassGP, R3.Class())
	require.Equal(t, RegClassVec, V17.Class())
	require.Equal(t, 17, V17.Low())
	require.False(t, V17.IsPair())

	require.True(t, RegGP(16).IsNone())
	require.True(t, RegGP(-1).IsNone())
	require.True(t, RegVec(32).IsNone())
}

func TestVPair(t *testing.T) {
	p := VPair(V2, V3)
	require.False(t, p.IsNone())
	require.True(t, p.IsPair())
	require.Equal(t, 2, p.Low())
	require.Equal(t, 3, p.High())
	require.Equal(t, V2, p.LowReg())
	require.Equal(t, V3, p.HighReg())

	for _, tc := range []struct {
		name   string
		lo, hi Register
	}{
		{name: "gp half", lo: R0, hi: V1},
		{name: "same register", lo: V4, hi: V4},
		{name: "pair as half", lo: VPair(V0, V1), hi: V2},
		{name: "none half", lo: RegNone, hi: V2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, VPair(tc.lo, tc.hi).IsNone())
		})
	}
}

func TestRegisterString(t *testing.T) {
	require.Equal(t, "R11", R11.String())
	require.Equal(t, "V8", V8.String())
	require.Equal(t, "V6:V9", VPair(V6, V9).String())
	require.Equal(t, "none", RegNone.String())
}

func TestMnemonicMetadata(t *testing.T) {
	require.Equal(t, CatLaneWise, MnemAdd.Category())
	require.Equal(t, 2, MnemAdd.NumSources())
	require.True(t, MnemAdd.Commutative())
	require.False(t, MnemSub.Commutative())

	require.Equal(t, CatCompare, MnemCmpGt.Category())
	require.True(t, MnemCmpGt.ProducesMask())

	require.Equal(t, CatCrossLane, MnemRev.Category())
	require.Equal(t, CatMove, MnemLoad.Category())

	require.True(t, MnemShlImm.HasImmediate())
	require.True(t, MnemShlImm.IntOnly())

	require.True(t, MnemLoadConst.Internal())
	require.True(t, MnemBrEq.Internal())
	require.False(t, MnemBlend.Internal())

	require.Equal(t, "ADD", MnemAdd.String())
	require.Equal(t, "invalid", MnemInvalid.String())
}

func TestLabelAndPathStrings(t *testing.T) {
	require.Equal(t, "L3", Label(3).String())
	require.Equal(t, "L?", LabelInvalid.String())
	require.Equal(t, "native", PathNative.String())
	require.Equal(t, "pair", PathPair.String())
	require.Equal(t, "fallback", PathFallback.String())
	require.Equal(t, "all", MaskAll.String())
	require.Equal(t, "none", MaskNone.String())
}
