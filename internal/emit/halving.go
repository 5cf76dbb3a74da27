package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/ir"
)

// HalvingAddU computes floor((a+b)/2) per unsigned lane via the classic
// overflow-free average identity (a&b) + ((a^b)>>1), the logical shift
// keeping the unsigned interpretation exact (spec.md §4.E "HalvingAddU").
func HalvingAddU(c *Context, block *ir.Block, inst *ir.Inst) {
	halvingAdd(c, block, inst, false)
}

// HalvingAddS is the same identity with an arithmetic shift, which keeps
// the average's sign correct for the signed interpretation (spec.md §4.E
// "HalvingAddS").
func HalvingAddS(c *Context, block *ir.Block, inst *ir.Inst) {
	halvingAdd(c, block, inst, true)
}

func halvingAdd(c *Context, block *ir.Block, inst *ir.Inst, signed bool) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	andPart := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, andPart)
	c.Asm.CompileRegisterToRegister(amd64.PAND, rhs, andPart)
	xorPart := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, xorPart)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, rhs, xorPart)
	if signed {
		arithmeticShiftRight1(c, xorPart, inst.Lane)
	} else {
		logicalShiftRight1(c, xorPart, inst.Lane)
	}
	c.Asm.CompileRegisterToRegister(addMnemonic[inst.Lane], xorPart, andPart)
	c.Alloc.Release(xorPart)
	c.Alloc.Release(lhs)
	c.define(inst.ID, andPart)
}

// RoundingHalvingAddU rounds the unsigned average up on ties. 8/16-bit
// lanes have a native instruction for exactly this (pavgb/pavgw); wider
// lanes use the ceiling-average identity (a|b) - ((a^b)>>1) (spec.md §4.E
// "RoundingHalvingAddS/U").
func RoundingHalvingAddU(c *Context, block *ir.Block, inst *ir.Inst) {
	if inst.Lane == ir.E8 || inst.Lane == ir.E16 {
		mn := amd64.PAVGB
		if inst.Lane == ir.E16 {
			mn = amd64.PAVGW
		}
		binaryArith(c, block, inst, mn)
		return
	}
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	orPart := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, orPart)
	c.Asm.CompileRegisterToRegister(amd64.POR, rhs, orPart)
	xorPart := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, xorPart)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, rhs, xorPart)
	logicalShiftRight1(c, xorPart, inst.Lane)
	c.Asm.CompileRegisterToRegister(subMnemonic[inst.Lane], xorPart, orPart)
	c.Alloc.Release(xorPart)
	c.Alloc.Release(lhs)
	c.define(inst.ID, orPart)
}

// HalvingSubS, HalvingSubU and RoundingHalvingAddS all need a borrow- or
// rounding-direction fix this package could not confidently hand-derive
// without executing the result against test vectors (spec.md §4.E:
// "subtract-and-shift with the corresponding sign fix"), so they go
// through the scalar fallback runtime instead of an unverified bit trick.
func HalvingSubS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.HalvingSubS[inst.Lane])
}

func HalvingSubU(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.HalvingSubU[inst.Lane])
}

func RoundingHalvingAddS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.RoundingHalvingAddS[inst.Lane])
}

// logicalShiftRight1 shifts every lane of v right by one bit, logically.
// Word-and-wider lanes have a native per-lane shift; byte lanes reuse the
// word-shift-then-mask idiom from shift.go's LogicalShiftRightImm, since
// psrlw operates at word granularity and bleeds one bit across each byte
// pair without the follow-up mask.
func logicalShiftRight1(c *Context, v amd64.Register, lane ir.Lane) {
	c.Asm.CompileShiftImm8(shrWordMnemonic[lane], v, 1)
	if lane == ir.E8 {
		maskByteLaneShiftRight(c, v, 1)
	}
}

// arithmeticShiftRight1 is logicalShiftRight1's signed counterpart: word
// and dword lanes shift natively (psraw/psrad), byte lanes widen to words
// via punpckl/hbw and repack, and qword lanes synthesize the sign fill the
// same way shift.go's arithmeticShiftRight64 does, both inlined here at a
// fixed shift count of 1 since halving add/sub never shift by anything
// else.
func arithmeticShiftRight1(c *Context, v amd64.Register, lane ir.Lane) {
	switch lane {
	case ir.E16:
		c.Asm.CompileShiftImm8(amd64.PSRAW, v, 1)
	case ir.E32:
		c.Asm.CompileShiftImm8(amd64.PSRAD, v, 1)
	case ir.E8:
		hi := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, hi)
		c.Asm.CompileRegisterToRegister(amd64.PUNPCKHBW, v, hi)
		c.Asm.CompileRegisterToRegister(amd64.PUNPCKLBW, v, v)
		c.Asm.CompileShiftImm8(amd64.PSRAW, v, 9)
		c.Asm.CompileShiftImm8(amd64.PSRAW, hi, 9)
		c.Asm.CompileRegisterToRegister(amd64.PACKSSWB, hi, v)
		c.Alloc.Release(hi)
	case ir.E64:
		signMask := c.scratch()
		c.Asm.CompileLoadStaticConst(splatU64(0x8000000000000000>>1), signMask)
		zero := c.scratch()
		c.zero(zero)
		c.Asm.CompileShiftImm8(amd64.PSRLQ, v, 1)
		c.Asm.CompileRegisterToRegister(amd64.PAND, v, signMask)
		c.Asm.CompileRegisterToRegister(amd64.PSUBQ, signMask, zero)
		c.Asm.CompileRegisterToRegister(amd64.POR, zero, v)
		c.Alloc.Release(signMask)
		c.Alloc.Release(zero)
	}
}
