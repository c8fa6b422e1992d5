// Package longword implements the 64-bit word format shared by the
// mem-operand targets. One instruction is one word; the wide format leaves
// room for a full 32-bit displacement or immediate next to three register
// fields, which is what lets the scalar ALU take a memory source.
//
//	bits 56..63  opcode
//	bits 54..55  element size tag: 8->0, 16->1, 32->2, 64->3
//	bits 52..53  index scale, log2
//	bits 47..51  dst register
//	bits 42..46  src1 / base register
//	bits 37..41  src2 / index register
//	bits 32..36  src3 register (blend mask)
//	bit  32      constant chunk position (reused; const ops carry no src3)
//	bits 0..31   imm32 / disp32
//	branches     src1 at 42..46, compare imm16 at 16..31, word delta at 0..15
package longword

import (
	"fmt"

	"github.com/vforge/vforge/internal/backend"
	"github.com/vforge/vforge/vop"
)

const (
	sizeShift  = 54
	scaleShift = 52
	dstShift   = 47
	src1Shift  = 42
	src2Shift  = 37
	src3Shift  = 32

	constPosBit = 32

	brImmShift   = 16
	brDispBits   = 16
	brDispMask   = 1<<brDispBits - 1
	dispBits     = 32
	maxBranchCmp = 0xffff
)

var sizeTag = map[vop.ElemKind]uint64{
	vop.ElemI8:  0,
	vop.ElemI16: 1,
	vop.ElemI32: 2,
	vop.ElemI64: 3,
	vop.ElemF32: 2,
	vop.ElemF64: 3,
}

// Encoder implements the word format. It is stateless; all three
// mem-operand targets share it.
type Encoder struct{}

func reg(r vop.Register) uint64 { return uint64(r.Low() & 0x1f) }

func needReg(i *vop.Inst, r vop.Register, c vop.RegClass, what string) error {
	if r.IsNone() || r.IsPair() || r.Class() != c {
		return fmt.Errorf("%w: %s of %s is %s", vop.ErrBadOperand, what, i.Mnemonic, r)
	}
	return nil
}

func scaleLog2(s uint8) (uint64, bool) {
	switch s {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 4:
		return 2, true
	case 8:
		return 3, true
	default:
		return 0, false
	}
}

func memFields(i *vop.Inst) (uint64, error) {
	m := i.Mem
	if !i.HasMem {
		return 0, fmt.Errorf("%w: %s without memory operand", vop.ErrBadOperand, i.Mnemonic)
	}
	if err := needReg(i, m.Base, vop.RegClassGP, "base"); err != nil {
		return 0, err
	}
	if !vop.FitsSigned(m.Disp, dispBits) {
		return 0, fmt.Errorf("%w: displacement %#x exceeds %d bits", vop.ErrBadAddress, m.Disp, dispBits)
	}
	w := reg(m.Base)<<src1Shift | uint64(uint32(m.Disp))
	if m.Mode == vop.AddrBaseIndexDisp {
		if err := needReg(i, m.Index, vop.RegClassGP, "index"); err != nil {
			return 0, err
		}
		sl, ok := scaleLog2(m.Scale)
		if !ok {
			return 0, fmt.Errorf("%w: scale %d", vop.ErrBadAddress, m.Scale)
		}
		w |= reg(m.Index)<<src2Shift | sl<<scaleShift
	}
	return w, nil
}

func (Encoder) Encode(t backend.Template, i *vop.Inst) (uint64, error) {
	w := t.Base

	switch t.Layout {
	case backend.LayoutVecRRR, backend.LayoutVecRRRR:
		regs := []struct {
			r     vop.Register
			shift uint64
			what  string
		}{
			{i.Dst, dstShift, "dst"},
			{i.Src1, src1Shift, "src1"},
			{i.Src2, src2Shift, "src2"},
		}
		if t.Layout == backend.LayoutVecRRRR {
			regs = append(regs, struct {
				r     vop.Register
				shift uint64
				what  string
			}{i.Src3, src3Shift, "src3"})
		}
		for _, c := range regs {
			if err := needReg(i, c.r, vop.RegClassVec, c.what); err != nil {
				return 0, err
			}
			w |= reg(c.r) << c.shift
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift

	case backend.LayoutVecRR:
		if err := needReg(i, i.Dst, vop.RegClassVec, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassVec, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift

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
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift | uint64(uint32(i.Imm))

	case backend.LayoutVecFromGP:
		if err := needReg(i, i.Dst, vop.RegClassVec, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift

	case backend.LayoutGPFromVec:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassVec, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift

	case backend.LayoutVecLoad, backend.LayoutGPLoad:
		cls := vop.RegClassVec
		if t.Layout == backend.LayoutGPLoad {
			cls = vop.RegClassGP
		}
		if err := needReg(i, i.Dst, cls, "dst"); err != nil {
			return 0, err
		}
		mf, err := memFields(i)
		if err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst)<<dstShift | mf

	case backend.LayoutVecStore, backend.LayoutGPStore:
		cls := vop.RegClassVec
		if t.Layout == backend.LayoutGPStore {
			cls = vop.RegClassGP
		}
		if err := needReg(i, i.Src1, cls, "src"); err != nil {
			return 0, err
		}
		mf, err := memFields(i)
		if err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Src1)<<dstShift | mf

	case backend.LayoutGPRR:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift
		if !i.Src2.IsNone() {
			if err := needReg(i, i.Src2, vop.RegClassGP, "src2"); err != nil {
				return 0, err
			}
			w |= reg(i.Src2) << src2Shift
		}

	case backend.LayoutGPRM:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		w |= sizeTag[i.Shape.Elem] << sizeShift
		w |= reg(i.Dst) << dstShift
		if i.HasMem {
			// Read-modify form: dst = dst OP [mem]; the base register
			// occupies the src1 field.
			mf, err := memFields(i)
			if err != nil {
				return 0, err
			}
			w |= mf
		} else {
			if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
				return 0, err
			}
			if err := needReg(i, i.Src2, vop.RegClassGP, "src2"); err != nil {
				return 0, err
			}
			w |= reg(i.Src1)<<src1Shift | reg(i.Src2)<<src2Shift
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
		w |= reg(i.Dst)<<dstShift | reg(i.Src1)<<src1Shift | uint64(uint32(i.Imm))

	case backend.LayoutGPConst:
		if err := needReg(i, i.Dst, vop.RegClassGP, "dst"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm > 0xffffffff {
			return 0, fmt.Errorf("%w: constant chunk %#x exceeds 32 bits", vop.ErrBadOperand, i.Imm)
		}
		if i.ImmShift%32 != 0 || i.ImmShift > 32 {
			return 0, fmt.Errorf("%w: chunk position %d", vop.ErrBadOperand, i.ImmShift)
		}
		w |= uint64(i.ImmShift/32)<<constPosBit | reg(i.Dst)<<dstShift | uint64(uint32(i.Imm))

	case backend.LayoutBranch:
		if err := needReg(i, i.Src1, vop.RegClassGP, "src1"); err != nil {
			return 0, err
		}
		if i.Imm < 0 || i.Imm > maxBranchCmp {
			return 0, fmt.Errorf("%w: branch compare %#x exceeds 16 bits", vop.ErrBadOperand, i.Imm)
		}
		w |= reg(i.Src1)<<src1Shift | uint64(i.Imm)<<brImmShift
		// The word delta is patched in when the label binds.

	default:
		return 0, fmt.Errorf("%w: layout %s on %s", vop.ErrUnsupported, t.Layout, i.Mnemonic)
	}

	return w, nil
}

func (Encoder) PatchBranch(word uint64, deltaWords int64) (uint64, error) {
	if !vop.FitsSigned(deltaWords, brDispBits) {
		return 0, fmt.Errorf("%w: branch delta %d words exceeds %d bits", vop.ErrUnsupported, deltaWords, brDispBits)
	}
	word &^= uint64(brDispMask)
	word |= uint64(deltaWords) & brDispMask
	return word, nil
}
