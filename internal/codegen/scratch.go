package codegen

import (
	"fmt"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// Scratch is the per-context scratch memory protocol: a base register
// pointing at caller-provided storage, divided into fixed-stride regions.
// Region 0 holds the first source and the result image of an emulated
// operation; further sources get one region each. The stride is the
// register-pair width so any representable shape fits a region.
type Scratch struct {
	Base    vop.Register
	Regions int
	Stride  int
}

func newScratch(base vop.Register, regions int, caps backend.Caps) (Scratch, error) {
	s := Scratch{Base: base, Regions: regions, Stride: caps.PairBits() / 8}
	if base.IsNone() || base.Class() != vop.RegClassGP || base.IsPair() {
		return Scratch{}, fmt.Errorf("%w: scratch base %s is not a general-purpose register", vop.ErrBadOperand, base)
	}
	if regions < 3 {
		return Scratch{}, fmt.Errorf("scratch needs at least 3 regions, have %d", regions)
	}
	// Every slice offset the fallback can form must be directly encodable;
	// emulated operations never re-materialize their own addresses.
	worst := int64(regions*s.Stride - 1)
	if !vop.FitsSigned(worst, caps.Addr.DispBits) {
		return Scratch{}, fmt.Errorf("scratch span %d exceeds the %d-bit displacement reach of %s",
			worst, caps.Addr.DispBits, caps.Name)
	}
	return s, nil
}

// Bytes returns the storage the caller must provide behind Base.
func (s Scratch) Bytes() int { return s.Regions * s.Stride }

// Region returns the byte offset of region i.
func (s Scratch) Region(i int) int64 { return int64(i * s.Stride) }

// Slice returns a memory reference into region i at byte offset off.
func (s Scratch) Slice(i int, off int64) vop.MemoryOperand {
	return vop.MemoryOperand{Mode: vop.AddrBaseDisp, Base: s.Base, Disp: s.Region(i) + off}
}
