package vforge

import "github.com/vforge/vforge/vop"

// This file wraps Context.Emit with one helper per mnemonic so call sites
// read like an instruction listing. Each helper builds the vop.Op and
// returns Emit's plan unchanged.

// Add emits dst = a + b lane-wise.
func (c *Context) Add(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemAdd, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Sub emits dst = a - b lane-wise.
func (c *Context) Sub(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemSub, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Mul emits dst = a * b lane-wise.
func (c *Context) Mul(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemMul, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Div emits dst = a / b lane-wise.
func (c *Context) Div(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemDiv, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Min emits dst = min(a, b) lane-wise.
func (c *Context) Min(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemMin, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Max emits dst = max(a, b) lane-wise.
func (c *Context) Max(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemMax, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Abs emits dst = |a| lane-wise.
func (c *Context) Abs(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemAbs, s, vop.Reg(dst), vop.Reg(a)))
}

// Neg emits dst = -a lane-wise.
func (c *Context) Neg(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemNeg, s, vop.Reg(dst), vop.Reg(a)))
}

// And emits dst = a & b.
func (c *Context) And(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemAnd, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Or emits dst = a | b.
func (c *Context) Or(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemOr, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Xor emits dst = a ^ b.
func (c *Context) Xor(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemXor, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// AndNot emits dst = ^a & b.
func (c *Context) AndNot(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemAndNot, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// ShlImm emits dst = a << count with a constant count.
func (c *Context) ShlImm(s vop.Shape, dst, a vop.Register, count int64) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemShlImm, s, vop.Reg(dst), vop.Reg(a), vop.Imm(count)))
}

// ShrImm emits dst = a >> count, zero-filling, with a constant count.
func (c *Context) ShrImm(s vop.Shape, dst, a vop.Register, count int64) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemShrImm, s, vop.Reg(dst), vop.Reg(a), vop.Imm(count)))
}

// SarImm emits dst = a >> count, sign-filling, with a constant count.
func (c *Context) SarImm(s vop.Shape, dst, a vop.Register, count int64) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemSarImm, s, vop.Reg(dst), vop.Reg(a), vop.Imm(count)))
}

// ShlVar emits dst = a << b with per-lane counts from b.
func (c *Context) ShlVar(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemShlVar, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// CmpEq emits a lane mask of a == b into dst.
func (c *Context) CmpEq(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCmpEq, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// CmpNe emits a lane mask of a != b into dst.
func (c *Context) CmpNe(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCmpNe, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// CmpGt emits a lane mask of a > b into dst.
func (c *Context) CmpGt(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCmpGt, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// CmpLt emits a lane mask of a < b into dst.
func (c *Context) CmpLt(s vop.Shape, dst, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCmpLt, s, vop.Reg(dst), vop.Reg(a), vop.Reg(b)))
}

// Blend emits dst = mask ? a : b per lane, same as SelectMerge.
func (c *Context) Blend(s vop.Shape, dst, mask, a, b vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemBlend, s, vop.Reg(dst), vop.Reg(mask), vop.Reg(a), vop.Reg(b)))
}

// Rev emits dst = a with lane order reversed.
func (c *Context) Rev(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemRev, s, vop.Reg(dst), vop.Reg(a)))
}

// Mov emits dst = a.
func (c *Context) Mov(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemMov, s, vop.Reg(dst), vop.Reg(a)))
}

// Broadcast emits dst with every lane set to the scalar in gp.
func (c *Context) Broadcast(s vop.Shape, dst, gp vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemBroadcast, s, vop.Reg(dst), vop.Reg(gp)))
}

// Load emits dst = [mem].
func (c *Context) Load(s vop.Shape, dst vop.Register, mem vop.MemoryOperand) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemLoad, s, vop.Reg(dst), vop.Mem(mem)))
}

// Store emits [mem] = src.
func (c *Context) Store(s vop.Shape, mem vop.MemoryOperand, src vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemStore, s, vop.Mem(mem), vop.Reg(src)))
}

// CvtToInt emits dst = int(a) lane-wise, truncating.
func (c *Context) CvtToInt(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCvtToInt, s, vop.Reg(dst), vop.Reg(a)))
}

// CvtToFloat emits dst = float(a) lane-wise.
func (c *Context) CvtToFloat(s vop.Shape, dst, a vop.Register) (*vop.Plan, error) {
	return c.Emit(vop.NewOp(vop.MnemCvtToFloat, s, vop.Reg(dst), vop.Reg(a)))
}
