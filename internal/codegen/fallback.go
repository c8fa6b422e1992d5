package codegen

import (
	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// fallbackOp lowers an operation with no vector encoding by spilling the
// sources to scratch memory, running the scalar form over every lane, and
// reloading the destination. Region i of the scratch area holds source i;
// results accumulate in region 0.
func (l *lowering) fallbackOp(p opParts) error {
	if p.m == vop.MnemRev {
		return l.revFallback(p)
	}
	elem := p.s.Elem
	ns := l.caps.NativeShape(elem)
	sc := vop.Scalar(elem)
	wide := int(p.s.VecBits) > l.caps.VectorBits
	nb := int64(l.caps.NativeBytes())
	eb := int64(elem.Bits() / 8)

	for i, src := range p.srcs {
		l.add(instStore(ns, pairHalf(src, 0), l.c.scratch.Slice(i, 0)))
		if wide {
			l.add(instStore(ns, pairHalf(src, 1), l.c.scratch.Slice(i, nb)))
		}
	}

	t1, t2 := l.c.tmpGP[0], l.c.tmpGP[1]
	for j := 0; j < p.s.Lanes(); j++ {
		off := int64(j) * eb
		l.add(instLoad(sc, t1, l.c.scratch.Slice(0, off)))
		switch {
		case p.hasImm:
			l.add(vop.Inst{Mnemonic: p.m, Shape: sc, Dst: t1, Src1: t1,
				Imm: p.imm, HasImm: true})
		case len(p.srcs) == 1:
			l.add(vop.Inst{Mnemonic: p.m, Shape: sc, Dst: t1, Src1: t1})
		case l.caps.Arch == backend.ArchMemOperand:
			l.add(vop.Inst{Mnemonic: p.m, Shape: sc, Dst: t1,
				Mem: l.c.scratch.Slice(1, off), HasMem: true})
		default:
			l.add(instLoad(sc, t2, l.c.scratch.Slice(1, off)))
			l.add(vop.Inst{Mnemonic: p.m, Shape: sc, Dst: t1, Src1: t1, Src2: t2})
		}
		l.add(instStore(sc, t1, l.c.scratch.Slice(0, off)))
	}

	l.add(instLoad(ns, pairHalf(p.dst, 0), l.c.scratch.Slice(0, 0)))
	if wide {
		l.add(instLoad(ns, pairHalf(p.dst, 1), l.c.scratch.Slice(0, nb)))
	}
	return nil
}

// revFallback reverses lanes through scratch memory: the source spills to
// region 0, each lane stores to its mirrored slot in region 1, and the
// destination reloads from there.
func (l *lowering) revFallback(p opParts) error {
	elem := p.s.Elem
	ns := l.caps.NativeShape(elem)
	sc := vop.Scalar(elem)
	wide := int(p.s.VecBits) > l.caps.VectorBits
	nb := int64(l.caps.NativeBytes())
	eb := int64(elem.Bits() / 8)

	src := p.srcs[0]
	l.add(instStore(ns, pairHalf(src, 0), l.c.scratch.Slice(0, 0)))
	if wide {
		l.add(instStore(ns, pairHalf(src, 1), l.c.scratch.Slice(0, nb)))
	}

	lanes := p.s.Lanes()
	t1 := l.c.tmpGP[0]
	for j := 0; j < lanes; j++ {
		l.add(instLoad(sc, t1, l.c.scratch.Slice(0, int64(j)*eb)))
		l.add(instStore(sc, t1, l.c.scratch.Slice(1, int64(lanes-1-j)*eb)))
	}

	l.add(instLoad(ns, pairHalf(p.dst, 0), l.c.scratch.Slice(1, 0)))
	if wide {
		l.add(instLoad(ns, pairHalf(p.dst, 1), l.c.scratch.Slice(1, nb)))
	}
	return nil
}
