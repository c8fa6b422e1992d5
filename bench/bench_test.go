package bench

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge"
	"github.com/vforge/vforge/vop"
)

// planKernel plans the vector form of the benchmark kernel.
func planKernel(target vforge.Target) (int, error) {
	ctx, err := vforge.NewContext(vforge.NewConfig().WithTarget(target))
	if err != nil {
		return 0, err
	}
	s := vop.Scalable(vop.ElemI64)
	mem, err := vop.NewMem(vop.R1, 0)
	if err != nil {
		return 0, err
	}

	top := ctx.NewLabel()
	if err := ctx.Bind(top); err != nil {
		return 0, err
	}
	if _, err := ctx.Load(s, vop.V1, mem); err != nil {
		return 0, err
	}
	if _, err := ctx.Mul(s, vop.V2, vop.V1, vop.V0); err != nil {
		return 0, err
	}
	if _, err := ctx.CmpGt(s, vop.V3, vop.V2, vop.V4); err != nil {
		return 0, err
	}
	if _, err := ctx.SelectMerge(s, vop.V5, vop.V3, vop.V4, vop.V2); err != nil {
		return 0, err
	}
	if _, err := ctx.Store(s, mem, vop.V5); err != nil {
		return 0, err
	}
	if _, err := ctx.JumpIfMask(vop.MaskAny, s, vop.V3, top); err != nil {
		return 0, err
	}
	if err := ctx.Finalize(); err != nil {
		return 0, err
	}
	return ctx.Len(), nil
}

func TestPlanKernel(t *testing.T) {
	for _, target := range vforge.Targets() {
		n, err := planKernel(target)
		require.NoError(t, err)
		require.Positive(t, n)
	}
}

func TestBaselineAssembles(t *testing.T) {
	bl, err := NewNativeBaseline()
	require.NoError(t, err)
	code, err := bl.ScaleClampLoop(4)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	_, err = bl.ScaleClampLoop(0)
	require.Error(t, err)
}

func BenchmarkPlanKernel(b *testing.B) {
	for _, target := range vforge.Targets() {
		target := target
		b.Run(target.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := planKernel(target); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkNativeBaseline(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bl, err := NewNativeBaseline()
		if err != nil {
			b.Fatal(err)
		}
		if _, err := bl.ScaleClampLoop(4); err != nil {
			b.Fatal(err)
		}
	}
}
