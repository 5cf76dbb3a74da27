package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var shlWordMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PSLLW, ir.E16: amd64.PSLLW, ir.E32: amd64.PSLLD, ir.E64: amd64.PSLLQ,
}

var shrWordMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PSRLW, ir.E16: amd64.PSRLW, ir.E32: amd64.PSRLD, ir.E64: amd64.PSRLQ,
}

// LogicalShiftLeftImm shifts every lane left by a compile-time-constant
// count. The 8-bit case widens to word lanes (no native byte-granularity
// shift exists) then masks away bits shifted in from the adjacent lane
// using a replicated byte mask loaded from the constant pool, per
// spec.md §4.E "Shifts".
func LogicalShiftLeftImm(c *Context, block *ir.Block, inst *ir.Inst) {
	n := imm8(inst, 1)
	v := c.useScratch(block, inst.Args[0].Value)
	c.Asm.CompileShiftImm8(shlWordMnemonic[inst.Lane], v, n)
	if inst.Lane == ir.E8 {
		maskByteLaneShiftLeft(c, v, n)
	}
	c.define(inst.ID, v)
}

// LogicalShiftRightImm mirrors LogicalShiftLeftImm for the right direction.
func LogicalShiftRightImm(c *Context, block *ir.Block, inst *ir.Inst) {
	n := imm8(inst, 1)
	v := c.useScratch(block, inst.Args[0].Value)
	c.Asm.CompileShiftImm8(shrWordMnemonic[inst.Lane], v, n)
	if inst.Lane == ir.E8 {
		maskByteLaneShiftRight(c, v, n)
	}
	c.define(inst.ID, v)
}

// maskByteLaneShiftLeft ANDs v with a per-byte mask of ((0xFF<<n)&0xFF)
// replicated to all 16 bytes, loaded from the constant pool.
// maskByteLaneShiftRight does the same with (0xFF>>n).
func maskByteLaneShiftLeft(c *Context, v amd64.Register, n amd64.Mode) {
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatBytes(16, byte(0xFF)<<n), mask)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, v)
	c.Alloc.Release(mask)
}

func maskByteLaneShiftRight(c *Context, v amd64.Register, n amd64.Mode) {
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatBytes(16, byte(0xFF)>>n), mask)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, v)
	c.Alloc.Release(mask)
}

// ArithmeticShiftRightImm lowers ArithmeticShiftRight{16,32} directly to
// psraw/psrad. The 8-bit case splits into sign-extended words via
// punpckhbw/punpcklbw, shifts by 8+n (since the high byte of each widened
// word holds the original lane, pre-shifted left by the unpack), and
// repacks with packsswb. The 64-bit case uses vpsraq under AVX-512VL, else
// synthesises the sign bits via a logical shift plus a masked subtraction.
func ArithmeticShiftRightImm(c *Context, block *ir.Block, inst *ir.Inst) {
	n := imm8(inst, 1)
	switch inst.Lane {
	case ir.E16:
		v := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileShiftImm8(amd64.PSRAW, v, n)
		c.define(inst.ID, v)
	case ir.E32:
		v := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileShiftImm8(amd64.PSRAD, v, n)
		c.define(inst.ID, v)
	case ir.E8:
		arithmeticShiftRight8(c, block, inst, n)
	case ir.E64:
		arithmeticShiftRight64(c, block, inst, n)
	}
}

func arithmeticShiftRight8(c *Context, block *ir.Block, inst *ir.Inst, n amd64.Mode) {
	v := c.use(inst.Args[0].Value)
	lo := c.scratch()
	hi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, lo)
	c.Asm.CompileRegisterToRegister(amd64.PUNPCKLBW, v, lo)
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, hi)
	c.Asm.CompileRegisterToRegister(amd64.PUNPCKHBW, v, hi)
	c.Asm.CompileShiftImm8(amd64.PSRAW, lo, n+8)
	c.Asm.CompileShiftImm8(amd64.PSRAW, hi, n+8)
	c.Asm.CompileRegisterToRegister(amd64.PACKSSWB, hi, lo)
	c.Alloc.Release(hi)
	c.define(inst.ID, lo)
}

func arithmeticShiftRight64(c *Context, block *ir.Block, inst *ir.Inst, n amd64.Mode) {
	if n > 63 {
		n = 63
	}
	v := c.useScratch(block, inst.Args[0].Value)
	if c.Features.Has(cpufeature.AVX512VL) {
		c.Asm.CompileVexShiftImm8(v, v, n)
		c.define(inst.ID, v)
		return
	}
	signMask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatU64(0x8000000000000000>>uint(n)), signMask)
	zero := c.scratch()
	c.zero(zero)
	c.Asm.CompileShiftImm8(amd64.PSRLQ, v, n)
	c.Asm.CompileRegisterToRegister(amd64.PAND, v, signMask)
	c.Asm.CompileRegisterToRegister(amd64.PSUBQ, signMask, zero)
	c.Asm.CompileRegisterToRegister(amd64.POR, zero, v)
	c.Alloc.Release(signMask)
	c.Alloc.Release(zero)
	c.define(inst.ID, v)
}

func splatU64(v uint64) [16]byte {
	var out [16]byte
	for i := 0; i < 16; i++ {
		out[i] = byte(v >> (uint(i%8) * 8))
	}
	return out
}
