package codegen

import (
	"fmt"

	"github.com/vforge/vforge/vop"
)

// SelectMerge emits dst = mask ? a : b per lane. Mask lanes must be all
// ones or all zeros, as the compare operations produce them.
func (c *Context) SelectMerge(s vop.Shape, dst, mask, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemBlend, s, vop.Reg(dst), vop.Reg(mask), vop.Reg(a), vop.Reg(b)))
}

// selectMergeNative lowers one native-width select against whichever
// blend capability the target has: mask-consuming destination, a
// four-register form, or composition from the bitwise operations.
func (l *lowering) selectMergeNative(s vop.Shape, dst, mask, a, b vop.Register) error {
	if a == b {
		if dst != a {
			l.mov(s, dst, a)
		}
		return nil
	}
	t := l.c.tmpSynth[0]
	switch {
	case l.caps.BlendMaskInDst:
		// The blend consumes the mask from dst, so inputs aliasing dst
		// move aside first.
		if dst == a {
			l.mov(s, t, a)
			a = t
		} else if dst == b {
			l.mov(s, t, b)
			b = t
		}
		if dst != mask {
			l.mov(s, dst, mask)
		}
		l.add(vop.Inst{Mnemonic: vop.MnemBlend, Shape: s, Dst: dst, Src1: a, Src2: b})
		return nil

	case l.caps.HasBlend:
		return l.nativeOp(opParts{m: vop.MnemBlend, s: s, dst: dst,
			srcs: []vop.Register{a, b, mask}, spare: t})

	default:
		// dst = (a & mask) | (b &^ mask)
		if err := l.nativeOp(opParts{m: vop.MnemAndNot, s: s, dst: t,
			srcs: []vop.Register{b, mask}, spare: l.c.tmpVec[0]}); err != nil {
			return err
		}
		out := dst
		if dst == mask {
			out = l.c.tmpSynth[1]
		}
		if err := l.nativeOp(opParts{m: vop.MnemAnd, s: s, dst: out,
			srcs: []vop.Register{a, mask}, spare: l.c.tmpVec[0]}); err != nil {
			return err
		}
		if err := l.nativeOp(opParts{m: vop.MnemOr, s: s, dst: out,
			srcs: []vop.Register{out, t}, spare: l.c.tmpVec[0]}); err != nil {
			return err
		}
		if out != dst {
			l.mov(s, dst, out)
		}
		return nil
	}
}

// selectMergeWide runs the native select once per half.
func (l *lowering) selectMergeWide(s vop.Shape, dst, mask, a, b vop.Register) error {
	half := s.Half()
	var parts [2]pairPart
	for k := 0; k < 2; k++ {
		write := pairHalf(dst, k)
		parts[k] = pairPart{
			write: write,
			reads: []vop.Register{pairHalf(mask, k), pairHalf(a, k), pairHalf(b, k)},
			emit: func(reads []vop.Register) error {
				return l.selectMergeNative(half, write, reads[0], reads[1], reads[2])
			},
		}
	}
	return l.emitPaired(half, l.c.tmpVec[1], parts)
}

// maskTest describes how one mask condition is decided: how general
// registers and vector halves fold together, which unsigned reduction
// stands in when there is no move-mask, which branch consumes the result,
// and whether the compare value is the all-set pattern.
type maskTest struct {
	gpCombine  vop.Mnemonic
	vecCombine vop.Mnemonic
	reduce     vop.Mnemonic
	br         vop.Mnemonic
	wantSet    bool
}

var maskTests = map[vop.MaskCond]maskTest{
	vop.MaskAll:    {vop.MnemAndAddr, vop.MnemAnd, vop.MnemRedMinU, vop.MnemBrEq, true},
	vop.MaskNone:   {vop.MnemOrAddr, vop.MnemOr, vop.MnemRedMaxU, vop.MnemBrEq, false},
	vop.MaskAny:    {vop.MnemOrAddr, vop.MnemOr, vop.MnemRedMaxU, vop.MnemBrNe, false},
	vop.MaskNotAll: {vop.MnemAndAddr, vop.MnemAnd, vop.MnemRedMinU, vop.MnemBrNe, true},
}

// JumpIfMask emits a conditional branch to target on a byte-granular test
// of mask. The test reads the mask register only; lanes must hold the
// canonical all-ones or all-zeros patterns.
func (c *Context) JumpIfMask(cond vop.MaskCond, s vop.Shape, mask vop.Register, target vop.Label) (*vop.Plan, error) {
	t, ok := maskTests[cond]
	if !ok {
		return nil, fmt.Errorf("%w: mask condition %s", vop.ErrBadOperand, cond)
	}
	caps := c.be.Caps()
	if s.IsScalable() {
		s = s.WithBits(caps.VectorBits)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.IsScalar() {
		return nil, fmt.Errorf("%w: mask tests need a vector shape", vop.ErrUnsupported)
	}
	if int(s.VecBits) < caps.VectorBits {
		return nil, fmt.Errorf("%w: %s narrower than the %d-bit vectors of %s",
			vop.ErrUnsupported, s, caps.VectorBits, caps.Name)
	}
	if int(s.VecBits) > caps.PairBits() {
		return nil, fmt.Errorf("%w: %s wider than the %d-bit register pairs of %s",
			vop.ErrUnsupported, s, caps.PairBits(), caps.Name)
	}
	if err := c.checkValueReg(mask, s, "mask"); err != nil {
		return nil, err
	}
	if _, err := c.labelAt(target); err != nil {
		return nil, err
	}

	l := c.newLowering()
	wide := int(s.VecBits) > caps.VectorBits
	bs := caps.NativeShape(vop.ElemI8)
	addr := vop.Scalar(vop.ElemI64)
	t1, t2 := c.tmpGP[0], c.tmpGP[1]
	var want uint64

	if caps.HasMoveMask {
		l.add(vop.Inst{Mnemonic: vop.MnemMoveMask, Shape: bs, Dst: t1, Src1: pairHalf(mask, 0)})
		if wide {
			l.add(vop.Inst{Mnemonic: vop.MnemMoveMask, Shape: bs, Dst: t2, Src1: pairHalf(mask, 1)})
			l.add(vop.Inst{Mnemonic: t.gpCombine, Shape: addr, Dst: t1, Src1: t1, Src2: t2})
		}
		if t.wantSet {
			want = uint64(1)<<caps.NativeBytes() - 1
		}
	} else {
		red := c.tmpSynth[0]
		src := pairHalf(mask, 0)
		if wide {
			if err := l.nativeOp(opParts{m: t.vecCombine, s: bs, dst: red,
				srcs: []vop.Register{mask.LowReg(), mask.HighReg()},
				spare: c.tmpVec[0]}); err != nil {
				return nil, err
			}
			src = red
		}
		l.add(vop.Inst{Mnemonic: t.reduce, Shape: bs, Dst: red, Src1: src})
		l.add(vop.Inst{Mnemonic: vop.MnemMovToGP, Shape: vop.Scalar(vop.ElemI8), Dst: t1, Src1: red})
		if t.wantSet {
			want = 0xff
		}
	}

	// A compare value too wide for the branch immediate folds into the
	// tested register instead: x XOR want is zero exactly when they match.
	if !vop.FitsUnsigned(want, caps.BranchCmpBits) {
		l.constGP(t2, want)
		l.add(vop.Inst{Mnemonic: vop.MnemXorAddr, Shape: addr, Dst: t1, Src1: t1, Src2: t2})
		want = 0
	}
	l.add(vop.Inst{Mnemonic: t.br, Shape: addr, Src1: t1,
		Imm: int64(want), HasImm: true, Target: target})

	path := vop.PathNative
	if wide {
		path = vop.PathPair
	}
	return c.finishPlan(l, t.br, s, path)
}
