package codegen

import (
	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// pairPart is one half of a pair-width synthesis: the register it will
// overwrite, the registers it reads, and the closure that emits it. The
// closure takes the read set as a parameter so the scheduler can
// substitute a saved copy when the halves collide.
type pairPart struct {
	write vop.Register
	reads []vop.Register
	emit  func(reads []vop.Register) error
}

func readsReg(reads []vop.Register, r vop.Register) bool {
	if r.IsNone() {
		return false
	}
	for _, x := range reads {
		if x == r {
			return true
		}
	}
	return false
}

// emitPaired emits two half-operations in an order that keeps every read
// ahead of the write that would clobber it. When the halves form a cycle,
// the first part's target is copied to save and the second part reads the
// copy.
func (l *lowering) emitPaired(s vop.Shape, save vop.Register, parts [2]pairPart) error {
	switch {
	case !readsReg(parts[1].reads, parts[0].write):
		if err := parts[0].emit(parts[0].reads); err != nil {
			return err
		}
		return parts[1].emit(parts[1].reads)
	case !readsReg(parts[0].reads, parts[1].write):
		if err := parts[1].emit(parts[1].reads); err != nil {
			return err
		}
		return parts[0].emit(parts[0].reads)
	default:
		l.mov(s, save, parts[0].write)
		reads := make([]vop.Register, len(parts[1].reads))
		for i, r := range parts[1].reads {
			if r == parts[0].write {
				r = save
			}
			reads[i] = r
		}
		if err := parts[0].emit(parts[0].reads); err != nil {
			return err
		}
		return parts[1].emit(reads)
	}
}

// pairHalf resolves one half of an operand: pairs split, single registers
// feed both halves unchanged.
func pairHalf(r vop.Register, k int) vop.Register {
	if !r.IsPair() {
		return r
	}
	if k == 0 {
		return r.LowReg()
	}
	return r.HighReg()
}

// pairOp lowers a pair-width operation as two native-width halves.
// Composed rules substitute the half mnemonic and may cross the halves
// over; memory references step by the native register size.
func (l *lowering) pairOp(p opParts) error {
	half := p.s.Half()
	halfM, swap := p.m, false
	if r, ok := l.c.be.Rule(p.m, p.s); ok && r.Kind == backend.RuleComposed {
		halfM, swap = r.HalfMnemonic, r.SwapHalves
	}
	nb := int64(l.caps.NativeBytes())

	var parts [2]pairPart
	for k := 0; k < 2; k++ {
		dstIdx := k
		if swap {
			dstIdx = 1 - k
		}
		var write vop.Register
		if !p.memIsDst && !p.dst.IsNone() {
			write = pairHalf(p.dst, dstIdx)
		}
		reads := make([]vop.Register, len(p.srcs))
		for i, s := range p.srcs {
			reads[i] = pairHalf(s, k)
		}
		mem := p.mem
		if p.hasMem {
			mem = p.mem.AddDisp(nb * int64(k))
		}
		hp := opParts{m: halfM, s: half, dst: write, imm: p.imm, hasImm: p.hasImm,
			mem: mem, hasMem: p.hasMem, memIsDst: p.memIsDst, spare: p.spare}
		parts[k] = pairPart{
			write: write,
			reads: reads,
			emit: func(reads []vop.Register) error {
				hp.srcs = reads
				return l.nativeOp(hp)
			},
		}
	}
	return l.emitPaired(half, l.c.tmpSynth[1], parts)
}
