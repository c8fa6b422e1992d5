package codegen

import (
	"fmt"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// lowering accumulates the instruction run of one operation before it is
// encoded and appended to the sink.
type lowering struct {
	c     *Context
	caps  backend.Caps
	insts []vop.Inst
}

func (c *Context) newLowering() *lowering {
	return &lowering{c: c, caps: c.be.Caps()}
}

func (l *lowering) add(i vop.Inst) {
	i.Off = -1
	l.insts = append(l.insts, i)
}

// mov appends a vector register move.
func (l *lowering) mov(s vop.Shape, dst, src vop.Register) {
	l.add(vop.Inst{Mnemonic: vop.MnemMov, Shape: s, Dst: dst, Src1: src})
}

func instLoad(s vop.Shape, dst vop.Register, mem vop.MemoryOperand) vop.Inst {
	return vop.Inst{Mnemonic: vop.MnemLoad, Shape: s, Dst: dst, Mem: mem, HasMem: true}
}

func instStore(s vop.Shape, src vop.Register, mem vop.MemoryOperand) vop.Inst {
	return vop.Inst{Mnemonic: vop.MnemStore, Shape: s, Src1: src, Mem: mem, HasMem: true, MemIsDst: true}
}

// opParts carries one resolved operation through the layout-driven
// lowering: concrete registers only, plus the memory reference of loads
// and stores. spare is scratch for move sequences and must not alias any
// operand; callers pass a temporary the current synthesis is not using.
type opParts struct {
	m        vop.Mnemonic
	s        vop.Shape
	dst      vop.Register
	srcs     []vop.Register
	imm      int64
	hasImm   bool
	mem      vop.MemoryOperand
	hasMem   bool
	memIsDst bool
	spare    vop.Register
}

// Emit selects, lowers, encodes and appends one operation. The returned
// plan records the path taken and the words the operation became.
func (c *Context) Emit(op vop.Op) (*vop.Plan, error) {
	s, err := c.checkOp(op)
	if err != nil {
		return nil, err
	}
	l := c.newLowering()

	// Lane selection always goes through the mask synthesizer: its
	// capability spread (mask-in-dst, four-register, absent) is wider than
	// the rule table expresses.
	if op.Mnemonic == vop.MnemBlend {
		srcs, _, _, err := l.resolveSources(op, s)
		if err != nil {
			return nil, err
		}
		wide := int(s.VecBits) > l.caps.VectorBits
		path := vop.PathNative
		if wide {
			path = vop.PathPair
			err = l.selectMergeWide(s, op.Dst.Reg, srcs[0], srcs[1], srcs[2])
		} else {
			err = l.selectMergeNative(s, op.Dst.Reg, srcs[0], srcs[1], srcs[2])
		}
		if err != nil {
			return nil, err
		}
		return c.finishPlan(l, op.Mnemonic, s, path)
	}

	path, err := c.Classify(op.Mnemonic, s)
	if err != nil {
		return nil, err
	}

	switch op.Mnemonic {
	case vop.MnemLoad:
		p := opParts{m: op.Mnemonic, s: s, dst: op.Dst.Reg,
			mem: op.Srcs[0].Mem, hasMem: true, spare: c.tmpSynth[0]}
		if path == vop.PathPair {
			err = l.pairOp(p)
		} else {
			err = l.nativeOp(p)
		}
	case vop.MnemStore:
		p := opParts{m: op.Mnemonic, s: s, srcs: []vop.Register{op.Srcs[0].Reg},
			mem: op.Dst.Mem, hasMem: true, memIsDst: true, spare: c.tmpSynth[0]}
		if path == vop.PathPair {
			err = l.pairOp(p)
		} else {
			err = l.nativeOp(p)
		}
	default:
		var srcs []vop.Register
		var imm int64
		var hasImm bool
		srcs, imm, hasImm, err = l.resolveSources(op, s)
		if err != nil {
			return nil, err
		}
		p := opParts{m: op.Mnemonic, s: s, dst: op.Dst.Reg, srcs: srcs,
			imm: imm, hasImm: hasImm, spare: c.tmpSynth[0]}
		switch path {
		case vop.PathNative:
			err = l.nativeOp(p)
		case vop.PathPair:
			err = l.pairOp(p)
		default:
			err = l.fallbackOp(p)
		}
	}
	if err != nil {
		return nil, err
	}
	return c.finishPlan(l, op.Mnemonic, s, path)
}

func (c *Context) finishPlan(l *lowering, m vop.Mnemonic, s vop.Shape, path vop.Path) (*vop.Plan, error) {
	p := &vop.Plan{Mnemonic: m, Shape: s, Path: path, Insts: l.insts}
	if err := c.appendPlan(p); err != nil {
		return nil, err
	}
	return p, nil
}

// regSourcesOnly lists the mnemonics whose sources must already sit in
// registers: moves between registers, broadcasts, and lane selection,
// whose synthesis claims the temporaries a preload would use.
func regSourcesOnly(m vop.Mnemonic) bool {
	switch m {
	case vop.MnemMov, vop.MnemBroadcast, vop.MnemBlend:
		return true
	}
	return false
}

// checkOp validates one operation request and resolves its shape.
func (c *Context) checkOp(op vop.Op) (vop.Shape, error) {
	m := op.Mnemonic
	if m.Internal() {
		return vop.Shape{}, fmt.Errorf("%w: %s is not caller-emittable", vop.ErrBadOperand, m)
	}
	caps := c.be.Caps()
	s := op.Shape
	if s.IsScalable() {
		s = s.WithBits(caps.VectorBits)
	}
	if err := s.Validate(); err != nil {
		return vop.Shape{}, err
	}
	if !s.IsScalar() {
		if int(s.VecBits) < caps.VectorBits {
			return vop.Shape{}, fmt.Errorf("%w: %s narrower than the %d-bit vectors of %s",
				vop.ErrUnsupported, s, caps.VectorBits, caps.Name)
		}
		if int(s.VecBits) > caps.PairBits() {
			return vop.Shape{}, fmt.Errorf("%w: %s wider than the %d-bit register pairs of %s",
				vop.ErrUnsupported, s, caps.PairBits(), caps.Name)
		}
	}
	if m == vop.MnemBlend && s.IsScalar() {
		return vop.Shape{}, fmt.Errorf("%w: lane selection needs a vector shape", vop.ErrUnsupported)
	}

	want := m.NumSources()
	if m.HasImmediate() {
		want++
	}
	if len(op.Srcs) != want {
		return vop.Shape{}, fmt.Errorf("%w: %s takes %d sources, got %d",
			vop.ErrBadOperand, m, want, len(op.Srcs))
	}
	if m.HasImmediate() {
		last := op.Srcs[len(op.Srcs)-1]
		if last.Kind != vop.OperandImm {
			return vop.Shape{}, fmt.Errorf("%w: %s count must be an immediate", vop.ErrBadOperand, m)
		}
		if last.Imm < 0 || last.Imm >= int64(s.Elem.Bits()) {
			return vop.Shape{}, fmt.Errorf("%w: %s count %d out of range for %s",
				vop.ErrBadOperand, m, last.Imm, s)
		}
	}

	if m == vop.MnemStore {
		if op.Dst.Kind != vop.OperandMem {
			return vop.Shape{}, fmt.Errorf("%w: store destination must be memory", vop.ErrBadOperand)
		}
		if err := c.checkMem(op.Dst.Mem); err != nil {
			return vop.Shape{}, err
		}
	} else {
		if op.Dst.Kind != vop.OperandReg {
			return vop.Shape{}, fmt.Errorf("%w: %s destination must be a register", vop.ErrBadOperand, m)
		}
		if err := c.checkValueReg(op.Dst.Reg, s, "destination"); err != nil {
			return vop.Shape{}, err
		}
	}

	for i := 0; i < m.NumSources(); i++ {
		src := op.Srcs[i]
		switch src.Kind {
		case vop.OperandReg:
			if m == vop.MnemBroadcast {
				if err := c.checkGPReg(src.Reg, "broadcast source"); err != nil {
					return vop.Shape{}, err
				}
				continue
			}
			if err := c.checkValueReg(src.Reg, s, "source"); err != nil {
				return vop.Shape{}, err
			}
		case vop.OperandMem:
			if m != vop.MnemLoad && (s.IsScalar() || regSourcesOnly(m) || m == vop.MnemStore) {
				return vop.Shape{}, fmt.Errorf("%w: %s takes register sources", vop.ErrBadOperand, m)
			}
			if err := c.checkMem(src.Mem); err != nil {
				return vop.Shape{}, err
			}
		case vop.OperandImm:
			if m != vop.MnemBroadcast {
				return vop.Shape{}, fmt.Errorf("%w: immediate source on %s", vop.ErrBadOperand, m)
			}
		default:
			return vop.Shape{}, fmt.Errorf("%w: source %d of %s is missing", vop.ErrBadOperand, i, m)
		}
	}

	if m == vop.MnemLoad && op.Srcs[0].Kind != vop.OperandMem {
		return vop.Shape{}, fmt.Errorf("%w: load source must be memory", vop.ErrBadOperand)
	}
	if m == vop.MnemStore && op.Srcs[0].Kind != vop.OperandReg {
		return vop.Shape{}, fmt.Errorf("%w: store source must be a register", vop.ErrBadOperand)
	}
	return s, nil
}

// checkValueReg validates a data operand register against the shape: the
// general file for scalar shapes, single or paired vector registers
// matching the width otherwise.
func (c *Context) checkValueReg(r vop.Register, s vop.Shape, what string) error {
	if r.IsNone() {
		return fmt.Errorf("%w: %s register is missing", vop.ErrBadOperand, what)
	}
	if c.reserved(r) {
		return fmt.Errorf("%w: %s %s is reserved", vop.ErrBadOperand, what, r)
	}
	if s.IsScalar() {
		if r.Class() != vop.RegClassGP || r.IsPair() {
			return fmt.Errorf("%w: %s %s: scalar shapes use the general file", vop.ErrBadOperand, what, r)
		}
		return nil
	}
	if r.Class() != vop.RegClassVec {
		return fmt.Errorf("%w: %s %s is not a vector register", vop.ErrBadOperand, what, r)
	}
	wide := int(s.VecBits) > c.be.Caps().VectorBits
	if wide && !r.IsPair() {
		return fmt.Errorf("%w: %s %s: %s needs a register pair", vop.ErrBadOperand, what, r, s)
	}
	if !wide && r.IsPair() {
		return fmt.Errorf("%w: %s %s is a pair at single width %s", vop.ErrBadOperand, what, r, s)
	}
	return nil
}

func (c *Context) checkGPReg(r vop.Register, what string) error {
	if r.IsNone() || r.Class() != vop.RegClassGP || r.IsPair() {
		return fmt.Errorf("%w: %s %s is not a general-purpose register", vop.ErrBadOperand, what, r)
	}
	if c.reserved(r) {
		return fmt.Errorf("%w: %s %s is reserved", vop.ErrBadOperand, what, r)
	}
	return nil
}

func (c *Context) checkMem(m vop.MemoryOperand) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if c.reserved(m.Base) {
		return fmt.Errorf("%w: base %s is reserved", vop.ErrBadOperand, m.Base)
	}
	if !m.Index.IsNone() && c.reserved(m.Index) {
		return fmt.Errorf("%w: index %s is reserved", vop.ErrBadOperand, m.Index)
	}
	return nil
}

// resolveSources turns the operand list into concrete registers: memory
// sources load into the selector temporaries and broadcast immediates
// materialize into a general register. The trailing shift count comes back
// separately.
func (l *lowering) resolveSources(op vop.Op, s vop.Shape) ([]vop.Register, int64, bool, error) {
	var imm int64
	var hasImm bool
	n := op.Mnemonic.NumSources()
	if op.Mnemonic.HasImmediate() {
		imm, hasImm = op.Srcs[n].Imm, true
	}
	wide := int(s.VecBits) > l.caps.VectorBits
	srcs := make([]vop.Register, 0, n)
	loaded := 0
	for i := 0; i < n; i++ {
		switch src := op.Srcs[i]; src.Kind {
		case vop.OperandReg:
			srcs = append(srcs, src.Reg)
		case vop.OperandImm:
			t := l.c.tmpGP[0]
			l.constGP(t, uint64(src.Imm))
			srcs = append(srcs, t)
		case vop.OperandMem:
			r, err := l.loadTemp(s, src.Mem, loaded, wide)
			if err != nil {
				return nil, 0, false, err
			}
			loaded++
			srcs = append(srcs, r)
		}
	}
	return srcs, imm, hasImm, nil
}

// loadTemp loads one memory source into a selector temporary. Pair-width
// sources take both temporaries, so only one fits; single-width sources
// take one each.
func (l *lowering) loadTemp(s vop.Shape, mem vop.MemoryOperand, idx int, wide bool) (vop.Register, error) {
	if wide {
		if idx > 0 {
			return vop.RegNone, fmt.Errorf("%w: at most one memory source at %s", vop.ErrBadOperand, s)
		}
		dst := l.c.vecTemp(0, true)
		half := s.Half()
		if err := l.loadMem(half, dst.LowReg(), mem); err != nil {
			return vop.RegNone, err
		}
		if err := l.loadMem(half, dst.HighReg(), mem.AddDisp(int64(l.caps.NativeBytes()))); err != nil {
			return vop.RegNone, err
		}
		return dst, nil
	}
	if idx > 1 {
		return vop.RegNone, fmt.Errorf("%w: at most two memory sources at %s", vop.ErrBadOperand, s)
	}
	dst := l.c.vecTemp(idx, false)
	if err := l.loadMem(s, dst, mem); err != nil {
		return vop.RegNone, err
	}
	return dst, nil
}

func (l *lowering) loadMem(s vop.Shape, dst vop.Register, mem vop.MemoryOperand) error {
	m, err := l.addrReady(mem)
	if err != nil {
		return err
	}
	l.add(instLoad(s, dst, m))
	return nil
}

// addrReady checks the addressing form against the target and, when the
// displacement exceeds its field, materializes base+disp into a temporary
// and re-addresses from there.
func (l *lowering) addrReady(m vop.MemoryOperand) (vop.MemoryOperand, error) {
	if err := m.Validate(); err != nil {
		return vop.MemoryOperand{}, err
	}
	if !m.ModeSupported(l.caps.Addr) {
		return vop.MemoryOperand{}, fmt.Errorf("%w: %s not addressable on %s",
			vop.ErrBadAddress, m, l.caps.Name)
	}
	if !m.NeedsMaterialize(l.caps.Addr) {
		return m, nil
	}
	t := l.c.tmpGP[1]
	l.constGP(t, uint64(m.Disp))
	l.add(vop.Inst{Mnemonic: vop.MnemAddAddr, Shape: vop.Scalar(vop.ElemI64),
		Dst: t, Src1: t, Src2: m.Base})
	m.Base, m.Disp = t, 0
	return m, nil
}

// constGP materializes v into dst, one chunk per instruction: the first
// set chunk zeroes the register, later chunks insert at their position.
func (l *lowering) constGP(dst vop.Register, v uint64) {
	chunk := l.caps.ConstChunkBits
	mask := uint64(1)<<chunk - 1
	addr := vop.Scalar(vop.ElemI64)
	emitted := false
	for pos := uint8(0); pos < 64; pos += chunk {
		part := v >> pos & mask
		if part == 0 {
			continue
		}
		m := vop.MnemLoadConstK
		if !emitted {
			m = vop.MnemLoadConst
		}
		l.add(vop.Inst{Mnemonic: m, Shape: addr, Dst: dst,
			Imm: int64(part), HasImm: true, ImmShift: pos})
		emitted = true
	}
	if !emitted {
		l.add(vop.Inst{Mnemonic: vop.MnemLoadConst, Shape: addr, Dst: dst, HasImm: true})
	}
}

// nativeOp lowers one operation against its native rule, honoring the
// operand discipline of the target.
func (l *lowering) nativeOp(p opParts) error {
	r, ok := l.c.be.Rule(p.m, p.s)
	if !ok || r.Kind != backend.RuleNative {
		return fmt.Errorf("%w: no encoding for %s at %s", vop.ErrUnsupported, p.m, p.s)
	}
	switch r.Template.Layout {
	case backend.LayoutVecLoad, backend.LayoutGPLoad:
		m, err := l.addrReady(p.mem)
		if err != nil {
			return err
		}
		l.add(instLoad(p.s, p.dst, m))

	case backend.LayoutVecStore, backend.LayoutGPStore:
		m, err := l.addrReady(p.mem)
		if err != nil {
			return err
		}
		l.add(instStore(p.s, p.srcs[0], m))

	case backend.LayoutVecFromGP, backend.LayoutGPFromVec:
		l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: p.srcs[0]})

	case backend.LayoutVecRR:
		src := p.srcs[0]
		if l.caps.DistinctDest && p.dst == src {
			if p.m == vop.MnemMov {
				return nil
			}
			l.mov(p.s, p.spare, src)
			src = p.spare
		}
		l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: src})

	case backend.LayoutVecRI:
		src := p.srcs[0]
		switch {
		case !l.caps.ThreeOperand && p.dst != src:
			l.mov(p.s, p.dst, src)
			src = p.dst
		case l.caps.DistinctDest && p.dst == src:
			l.mov(p.s, p.spare, src)
			src = p.spare
		}
		l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: src,
			Imm: p.imm, HasImm: true})

	case backend.LayoutVecRRR:
		l.vecBinary(p)

	case backend.LayoutVecRRRR:
		l.vecQuad(p)

	case backend.LayoutGPRR, backend.LayoutGPRM:
		inst := vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: p.srcs[0]}
		if len(p.srcs) > 1 {
			inst.Src2 = p.srcs[1]
		}
		l.add(inst)

	case backend.LayoutGPRI:
		l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: p.srcs[0],
			Imm: p.imm, HasImm: true})

	default:
		return fmt.Errorf("%w: layout %s for %s", vop.ErrUnsupported, r.Template.Layout, p.m)
	}
	return nil
}

// vecBinary applies the target's register discipline to a two-source
// vector encoding: non-destructive three-operand, destructive two-operand
// with move preludes, or distinct-destination with a saved copy.
func (l *lowering) vecBinary(p opParts) {
	a, b := p.srcs[0], p.srcs[1]
	emit := func(dst, s1, s2 vop.Register) {
		l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: dst, Src1: s1, Src2: s2})
	}
	switch {
	case !l.caps.ThreeOperand:
		switch {
		case p.dst == a:
			emit(p.dst, p.dst, b)
		case p.dst == b && p.m.Commutative():
			emit(p.dst, p.dst, a)
		case p.dst == b:
			l.mov(p.s, p.spare, b)
			l.mov(p.s, p.dst, a)
			emit(p.dst, p.dst, p.spare)
		default:
			l.mov(p.s, p.dst, a)
			emit(p.dst, p.dst, b)
		}
	case l.caps.DistinctDest && (p.dst == a || p.dst == b):
		l.mov(p.s, p.spare, p.dst)
		if a == p.dst {
			a = p.spare
		}
		if b == p.dst {
			b = p.spare
		}
		emit(p.dst, a, b)
	default:
		emit(p.dst, a, b)
	}
}

// vecQuad lowers the four-register blend form. Sources arrive as a, b,
// mask.
func (l *lowering) vecQuad(p opParts) {
	a, b, m := p.srcs[0], p.srcs[1], p.srcs[2]
	if l.caps.DistinctDest && (p.dst == a || p.dst == b || p.dst == m) {
		l.mov(p.s, p.spare, p.dst)
		if a == p.dst {
			a = p.spare
		}
		if b == p.dst {
			b = p.spare
		}
		if m == p.dst {
			m = p.spare
		}
	}
	l.add(vop.Inst{Mnemonic: p.m, Shape: p.s, Dst: p.dst, Src1: a, Src2: b, Src3: m})
}
