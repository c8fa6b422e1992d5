package neon128

import (
	"fmt"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

// Word format, 32 bits. Field positions follow the A64 conventions the
// opcode bases are drawn from:
//
//	Rd/Rt    bits 0..4    destination / transfer register
//	Rn       bits 5..9    first source / base register
//	Rm       bits 16..20  second source register
//	imm6     bits 16..21  shift amount (register-immediate forms)
//	disp9    bits 12..20  signed byte displacement (loads/stores)
//	size     bits 22..23  element size tag: 8->0, 16->1, 32->2, 64->3
//	imm16    bits 5..20   constant chunk, hw position at bits 21..22
//	branches bits 0..4 Rt, bits 5..18 signed word delta, bits 19..26 compare byte
//
// The remaining bits are fixed opcode bits from the rule template.
const (
	rdShift   = 0
	rnShift   = 5
	rmShift   = 16
	imm6Shift = 16
	dispShift = 12
	sizeShift = 22

	constImmShift = 5
	constHwShift  = 21

	brRegShift  = 0
	brDispShift = 5
	brDispBits  = 14
	brImmShift  = 19
	brDispMask  = (1<<brDispBits - 1) << brDispShift
)

var sizeTag = map[vop.ElemKind]uint64{
	vop.ElemI8:  0,
	vop.ElemI16: 1,
	vop.ElemI32: 2,
	vop.ElemI64: 3,
	vop.ElemF32: 2,
	vop.ElemF64: 3,
}

type encoder struct{}

func reg(r vop.Register) uint64 { return uint64(r.Low() & 0x1f) }

func needReg(i *vop.Inst, r vop.Register, c vop.RegClass, what string) error {
	if r.IsNone() || r.IsPair() || r.Class() != c {
		return fmt.Errorf("%w: %s of %s is %s", vop.ErrBadOperand, what, i.Mnemonic, r)
	}
	return nil
}

func (encoder) Encode(t backend.Template, i *vop.Inst) (uint64, error) {
	w := t.Base

	switch t.Layout {
	case backend.LayoutVecRRR:
		for _, c := range []struct {
			r    vop.Register
			what string
		}{{i.Dst, "dst"}, {i.Src1, "src1"}, {i.Src2, "src2"}} {
			if err := needReg(i, c.r, vop.RegClassVec, c.what); err != nil {
				return 0, err
			}
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src2)<<rmShift | reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutVecRR:
		if err := needReg(i, i.Dst, vop.RegClassVec, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassVec, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutVecRI:
		if err := needReg(i, i.Dst, vop.RegClassVec, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassVec, "src1"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm >= int64(i.Shape.Elem.Bits()) {
			return 0, fmt.Errorf("%w: shift %d out of range for %s", vop.ErrBadOperand, i.Imm, i.Shape)
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= uint64(i.Imm&0x3f)<<imm6Shift | reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutVecFromGP:
		if err := needReg(i, i.Dst, vop.RegClassVec, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutGPFromVec:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassVec, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutVecLoad, backend.LayoutVecStore, backend.LayoutGPLoad, backend.LayoutGPStore:
		vec := t.Layout == backend.LayoutVecLoad || t.Layout == backend.LayoutVecStore
		load := t.Layout == backend.LayoutVecLoad || t.Layout == backend.LayoutGPLoad
		tr, what := i.Src1, "src"
		if load {
			tr, what = i.Dst, "dst"
		}
		cls := vop.RegClassGP
		if vec {
			cls = vop.RegClassVec
		}
		if err := needReg(i, tr, cls, what); err != nil {
			return 0, err
		}
		if !i.HasMem {
			return 0, fmt.Errorf("%w: %s without memory operand", vop.ErrBadOperand, i.Mnemonic)
		}
		m := i.Mem
		if m.Mode != vop.AddrBaseDisp {
			return 0, fmt.Errorf("%w: %s on %s", vop.ErrBadAddress, m.Mode, i.Mnemonic)
		}
		if err := needReg(i, m.Base, vop.RegClassGP, "base"); err != nil {
			return 0, err
		}
		if !vop.FitsSigned(m.Disp, 9) {
			return 0, fmt.Errorf("%w: displacement %#x exceeds 9 bits", vop.ErrBadAddress, m.Disp)
		}
		w |= uint64(m.Disp&0x1ff)<<dispShift | reg(m.Base)<<rnShift | reg(tr)<<rdShift

	case backend.LayoutGPRR:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift
		if !i.Src2.IsNone() {
			if err := needReg(i, i.Src2, vop.RegClassGP, "src2"); err != nil {
				return 0, err
			}
			w |= reg(i.Src2) << rmShift
		}

	case backend.LayoutGPRI:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm >= int64(i.Shape.Elem.Bits()) {
			return 0, fmt.Errorf("%w: shift %d out of range for %s", vop.ErrBadOperand, i.Imm, i.Shape)
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= uint64(i.Imm&0x3f)<<imm6Shift | reg(i.Src1)<<rnShift | reg(i.Dst)<<rdShift

	case backend.LayoutGPConst:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm > 0xffff {
			return 0, fmt.Errorf("%w: constant chunk %#x exceeds 16 bits", vop.ErrBadOperand, i.Imm)
		}
		if i.ImmShift%16 != 0 || i.ImmShift > 48 {
			return 0, fmt.Errorf("%w: chunk position %d", vop.ErrBadOperand, i.ImmShift)
		}
		w |= uint64(i.ImmShift/16)<<constHwShift | uint64(i.Imm)<<constImmShift | reg(i.Dst)<<rdShift

	case backend.LayoutBranch:
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm > 0xff {
			return 0, fmt.Errorf("%w: branch compare %#x exceeds 8 bits", vop.ErrBadOperand, i.Imm)
		}
		w |= uint64(i.Imm)<<brImmShift | reg(i.Src1)<<brRegShift
		// The word delta is patched in when the label binds.

	default:
		return 0, fmt.Errorf("%w: layout %s on %s", vop.ErrUnsupported, t.Layout, i.Mnemonic)
	}

	return w & 0xffffffff, nil
}

func (encoder) PatchBranch(word uint64, deltaWords int64) (uint64, error) {
	if !vop.FitsSigned(deltaWords, brDispBits) {
		return 0, fmt.Errorf("%w: branch delta %d words exceeds %d bits", vop.ErrUnsupported, deltaWords, brDispBits)
	}
	word &^= uint64(brDispMask)
	word |= uint64(deltaWords&(1<<brDispBits-1)) << brDispShift
	return word & 0xffffffff, nil
}
