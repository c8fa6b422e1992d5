package vop

import (
	"fmt"
	"strings"
)

// Op is one requested operation before selection: a mnemonic, the lane
// shape it applies to, a destination and up to three sources. Compare
// destinations receive masks; Store destinations are memory.
type Op struct {
	Mnemonic Mnemonic
	Shape    Shape
	Dst      Operand
	Srcs     []Operand
}

// NewOp assembles an operation request.
func NewOp(m Mnemonic, s Shape, dst Operand, srcs ...Operand) Op {
	return Op{Mnemonic: m, Shape: s, Dst: dst, Srcs: srcs}
}

func (o Op) String() string {
	parts := make([]string, 0, 4)
	for _, s := range o.Srcs {
		parts = append(parts, s.String())
	}
	return fmt.Sprintf("%s.%s (%s), %s", o.Mnemonic, o.Shape, strings.Join(parts, ", "), o.Dst)
}

// Inst is one selected instruction: concrete registers, an optional memory
// reference or immediate, and after encoding the machine word it became.
// Every instruction encodes to exactly one word of the target's word size.
type Inst struct {
	Mnemonic Mnemonic
	Shape    Shape

	Dst  Register
	Src1 Register
	Src2 Register
	Src3 Register

	Mem      MemoryOperand
	HasMem   bool
	MemIsDst bool

	Imm      int64
	HasImm   bool
	ImmShift uint8

	// Target is the branch destination, or LabelInvalid.
	Target Label

	// Word is the encoded machine word; Off is its byte offset in the sink,
	// -1 until emitted.
	Word uint64
	Off  int
}

func (i *Inst) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s", i.Mnemonic, i.Shape)
	var ops []string
	add := func(s string) { ops = append(ops, s) }
	for _, r := range []Register{i.Src1, i.Src2, i.Src3} {
		if !r.IsNone() {
			add(r.String())
		}
	}
	if i.HasMem && !i.MemIsDst {
		add(i.Mem.String())
	}
	if i.HasImm {
		if i.ImmShift != 0 {
			add(fmt.Sprintf("#%#x<<%d", i.Imm, i.ImmShift))
		} else {
			add(fmt.Sprintf("#%d", i.Imm))
		}
	}
	if i.Target != LabelInvalid {
		add(i.Target.String())
	}
	if len(ops) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ops, ", "))
	}
	switch {
	case i.MemIsDst:
		fmt.Fprintf(&b, ", %s", i.Mem)
	case !i.Dst.IsNone():
		fmt.Fprintf(&b, ", %s", i.Dst)
	}
	return b.String()
}

// Plan is the selected lowering of one operation: the path taken and the
// instruction sequence, in emission order. Plans returned by a context are
// already encoded and appended.
type Plan struct {
	Mnemonic Mnemonic
	Shape    Shape
	Path     Path
	Insts    []Inst
}

// WordCount returns the number of machine words the plan emits.
func (p *Plan) WordCount() int { return len(p.Insts) }

// Words returns the encoded words in emission order.
func (p *Plan) Words() []uint64 {
	ws := make([]uint64, len(p.Insts))
	for i := range p.Insts {
		ws[i] = p.Insts[i].Word
	}
	return ws
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s via %s (%d words)\n", p.Mnemonic, p.Shape, p.Path, len(p.Insts))
	for idx := range p.Insts {
		i := &p.Insts[idx]
		fmt.Fprintf(&b, "  %3d: %016x  %s\n", idx, i.Word, i.String())
	}
	return b.String()
}
