package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/internal/backend/avx256"
	"github.com/vforge/vforge/internal/backend/neon128"
	"github.com/vforge/vforge/internal/backend/sse128"
	"github.com/vforge/vforge/internal/backend/vex512"
	"github.com/vforge/vforge/vop"
)

var targets = []struct {
	name string
	make func() (*backend.Backend, error)
}{
	{"neon128", neon128.New},
	{"sse128", sse128.New},
	{"avx256", avx256.New},
	{"vex512", vex512.New},
}

func newTestBackend(t *testing.T, make func() (*backend.Backend, error)) *backend.Backend {
	t.Helper()
	be, err := make()
	require.NoError(t, err)
	return be
}

func newTestContext(t *testing.T, make func() (*backend.Backend, error)) (*Context, *vop.CodeBuffer) {
	t.Helper()
	buf := vop.NewCodeBuffer(512)
	c, err := NewContext(Config{Backend: newTestBackend(t, make), Sink: buf})
	require.NoError(t, err)
	return c, buf
}

func mnems(p *vop.Plan) []vop.Mnemonic {
	ms := make([]vop.Mnemonic, len(p.Insts))
	for i := range p.Insts {
		ms[i] = p.Insts[i].Mnemonic
	}
	return ms
}

func shape(t *testing.T, e vop.ElemKind, bits int) vop.Shape {
	t.Helper()
	s, err := vop.NewShape(e, bits)
	require.NoError(t, err)
	return s
}

func TestNewContextValidation(t *testing.T) {
	be := newTestBackend(t, neon128.New)
	buf := vop.NewCodeBuffer(0)

	_, err := NewContext(Config{Sink: buf})
	require.Error(t, err)
	_, err = NewContext(Config{Backend: be})
	require.Error(t, err)

	// The scratch base may not collide with the GP temporaries.
	_, err = NewContext(Config{Backend: be, Sink: buf, ScratchBase: vop.R13})
	require.Error(t, err)
	_, err = NewContext(Config{Backend: be, Sink: buf, ScratchBase: vop.V3})
	require.Error(t, err)
	_, err = NewContext(Config{Backend: be, Sink: buf, ScratchRegions: 2})
	require.Error(t, err)

	c, err := NewContext(Config{Backend: be, Sink: buf, ScratchBase: vop.R7, ScratchRegions: 4})
	require.NoError(t, err)
	require.Equal(t, 4*32, c.ScratchBytes())
}

func TestScratchSpanMustBeAddressable(t *testing.T) {
	be := newTestBackend(t, neon128.New)
	// 9 signed displacement bits reach 255; nine 32-byte regions do not fit.
	_, err := NewContext(Config{Backend: be, Sink: vop.NewCodeBuffer(0), ScratchRegions: 9})
	require.ErrorContains(t, err, "displacement reach")
}
