package codegen

import (
	"fmt"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

type classKey struct {
	m    vop.Mnemonic
	e    vop.ElemKind
	bits uint16
}

// Classify resolves the lowering path of m at the concrete shape s. The
// result is a pure function of the target's table and capabilities, so it
// is cached for the life of the context.
func (c *Context) Classify(m vop.Mnemonic, s vop.Shape) (vop.Path, error) {
	key := classKey{m: m, e: s.Elem, bits: s.VecBits}
	if p, ok := c.classes[key]; ok {
		return p, nil
	}
	p, err := c.classify(m, s)
	if err != nil {
		return 0, err
	}
	c.classes[key] = p
	return p, nil
}

func (c *Context) classify(m vop.Mnemonic, s vop.Shape) (vop.Path, error) {
	caps := c.be.Caps()

	if int(s.VecBits) > caps.PairBits() {
		return 0, fmt.Errorf("%w: %s wider than the %d-bit register pairs of %s",
			vop.ErrUnsupported, s, caps.PairBits(), caps.Name)
	}
	if !s.IsScalar() && int(s.VecBits) < caps.VectorBits {
		return 0, fmt.Errorf("%w: %s narrower than the %d-bit vectors of %s",
			vop.ErrUnsupported, s, caps.VectorBits, caps.Name)
	}
	if m.IntOnly() && s.Elem.IsFloat() {
		return 0, fmt.Errorf("%w: %s over float lanes %s", vop.ErrUnsupported, m, s)
	}

	if c.be.HasNative(m, s) {
		return vop.PathNative, nil
	}

	// Composed pair idioms count as pair emulation: still one native
	// instruction per half.
	if r, ok := c.be.Rule(m, s); ok && r.Kind == backend.RuleComposed {
		return vop.PathPair, nil
	}

	if int(s.VecBits) == caps.PairBits() {
		switch m.Category() {
		case vop.CatMove, vop.CatLaneWise, vop.CatCompare:
			if c.be.HasNative(m, s.Half()) {
				return vop.PathPair, nil
			}
		}
		// Cross-lane ops without a composed rule, and lane-wise ops whose
		// half has no native encoding, go through scratch.
	}

	if c.fallbackViable(m, s) {
		return vop.PathFallback, nil
	}
	return 0, fmt.Errorf("%w: %s at %s on %s", vop.ErrUnsupported, m, s, caps.Name)
}

// fallbackViable reports whether the scratch emulator can lower m at s:
// the operands must move between registers and scratch at both the vector
// and the element width, and the per-element operation must encode natively.
func (c *Context) fallbackViable(m vop.Mnemonic, s vop.Shape) bool {
	if s.IsScalar() {
		return false
	}
	native := c.be.Caps().NativeShape(s.Elem)
	if !c.be.HasNative(vop.MnemLoad, native) || !c.be.HasNative(vop.MnemStore, native) {
		return false
	}
	scalar := vop.Scalar(s.Elem)
	if !c.be.HasNative(vop.MnemLoad, scalar) || !c.be.HasNative(vop.MnemStore, scalar) {
		return false
	}
	switch m.Category() {
	case vop.CatLaneWise, vop.CatCompare:
		return m != vop.MnemBlend && c.be.HasNative(m, scalar)
	case vop.CatCrossLane:
		// Lane movement needs only the element loads and stores.
		return true
	default:
		return false
	}
}
