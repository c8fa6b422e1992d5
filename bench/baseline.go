// Package bench compares the planner's emission speed against assembling
// the equivalent scalar stream with golang-asm.
package bench

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

// NativeBaseline assembles the scalar amd64 form of the scale-and-clamp
// kernel, one load/scale/compare/select/store group per element. Assembling
// does not execute anything, so the baseline runs on any host.
type NativeBaseline struct {
	b *goasm.Builder
}

func NewNativeBaseline() (*NativeBaseline, error) {
	b, err := goasm.NewBuilder("amd64", 1024)
	if err != nil {
		return nil, fmt.Errorf("assembly builder: %w", err)
	}
	return &NativeBaseline{b: b}, nil
}

func (n *NativeBaseline) regToReg(as obj.As, from, to int16) {
	p := n.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_REG
	p.From.Reg = from
	p.To.Type = obj.TYPE_REG
	p.To.Reg = to
	n.b.AddInstruction(p)
}

func (n *NativeBaseline) memToReg(as obj.As, base int16, off int64, to int16) {
	p := n.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = base
	p.From.Offset = off
	p.To.Type = obj.TYPE_REG
	p.To.Reg = to
	n.b.AddInstruction(p)
}

func (n *NativeBaseline) regToMem(as obj.As, from int16, base int16, off int64) {
	p := n.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_REG
	p.From.Reg = from
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = base
	p.To.Offset = off
	n.b.AddInstruction(p)
}

// ScaleClampLoop assembles lanes load/scale/compare/select/store groups,
// reading and writing 64-bit elements behind SI, with the coefficient in CX
// and the threshold in DX. It returns the machine code bytes. The builder is
// single-use; Assemble is called once.
func (n *NativeBaseline) ScaleClampLoop(lanes int) ([]byte, error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("lane count %d", lanes)
	}
	for i := 0; i < lanes; i++ {
		off := int64(i) * 8
		n.memToReg(x86.AMOVQ, x86.REG_SI, off, x86.REG_AX)
		n.regToReg(x86.AIMULQ, x86.REG_CX, x86.REG_AX)
		n.regToReg(x86.ACMPQ, x86.REG_DX, x86.REG_AX)
		n.regToReg(x86.ACMOVQGT, x86.REG_DX, x86.REG_AX)
		n.regToMem(x86.AMOVQ, x86.REG_AX, x86.REG_SI, off)
	}
	ret := n.b.NewProg()
	ret.As = obj.ARET
	n.b.AddInstruction(ret)
	return n.b.Assemble(), nil
}
