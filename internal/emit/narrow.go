package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

// Narrow truncates each lane to half width. Narrow16 (16->8) prefers
// vpmovwb on AVX-512VL+BW, else masks the low byte of each word and
// packuswb's two operands together; Narrow32 (32->16) uses pblendw+
// packusdw on SSE4.1, else sign-extends via pslld/psrad then packssdw;
// Narrow64 (64->32) takes the even dwords of each operand with shufps
// (spec.md §4.E "Narrow/widen").
func Narrow(c *Context, block *ir.Block, inst *ir.Inst) {
	switch inst.Lane {
	case ir.E16:
		narrow16(c, block, inst)
	case ir.E32:
		narrow32(c, block, inst)
	case ir.E64:
		narrow64(c, block, inst)
	}
}

func narrow16(c *Context, block *ir.Block, inst *ir.Inst) {
	if c.Features.HasAll(cpufeature.AVX512VL, cpufeature.AVX512BW) {
		v := c.use(inst.Args[0].Value)
		dst := c.scratch()
		c.Asm.CompileVexRR(amd64.VPMOVWB, v, dst)
		c.define(inst.ID, dst)
		return
	}
	lo := c.useScratch(block, inst.Args[0].Value)
	hi := c.use(inst.Args[1].Value)
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatU64(0x00FF00FF00FF00FF), mask)
	hiCopy := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, hi, hiCopy)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, lo)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, hiCopy)
	c.Asm.CompileRegisterToRegister(amd64.PACKUSWB, hiCopy, lo)
	c.Alloc.Release(mask)
	c.Alloc.Release(hiCopy)
	c.define(inst.ID, lo)
}

func narrow32(c *Context, block *ir.Block, inst *ir.Inst) {
	lo := c.useScratch(block, inst.Args[0].Value)
	hi := c.use(inst.Args[1].Value)
	if c.Features.Has(cpufeature.SSE4_1) {
		// Zero the high word of every dword so packusdw never saturates.
		zero := c.scratch()
		c.zero(zero)
		hiCopy := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, hi, hiCopy)
		c.Asm.CompileRegisterToRegisterImm8(amd64.PBLENDW, zero, lo, 0xAA)
		c.Asm.CompileRegisterToRegisterImm8(amd64.PBLENDW, zero, hiCopy, 0xAA)
		c.Asm.CompileRegisterToRegister(amd64.PACKUSDW, hiCopy, lo)
		c.Alloc.Release(zero)
		c.Alloc.Release(hiCopy)
		c.define(inst.ID, lo)
		return
	}
	loS := c.scratch()
	hiS := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lo, loS)
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, hi, hiS)
	c.Asm.CompileShiftImm8(amd64.PSLLD, loS, 16)
	c.Asm.CompileShiftImm8(amd64.PSRAD, loS, 16)
	c.Asm.CompileShiftImm8(amd64.PSLLD, hiS, 16)
	c.Asm.CompileShiftImm8(amd64.PSRAD, hiS, 16)
	c.Asm.CompileRegisterToRegister(amd64.PACKSSDW, hiS, loS)
	c.Alloc.Release(hiS)
	c.define(inst.ID, loS)
}

func narrow64(c *Context, block *ir.Block, inst *ir.Inst) {
	lo := c.useScratch(block, inst.Args[0].Value)
	hi := c.use(inst.Args[1].Value)
	hiCopy := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, hi, hiCopy)
	c.Asm.CompileRegisterToRegisterImm8(amd64.SHUFPS, hiCopy, lo, 0x88)
	c.Alloc.Release(hiCopy)
	c.define(inst.ID, lo)
}

// SignExtend and ZeroExtend widen the low half of a vector, preferring
// pmovsx/pmovzx (SSE4.1) and otherwise synthesising with punpckl* plus a
// sign- or zero-fill of the new high halves.
func SignExtend(c *Context, block *ir.Block, inst *ir.Inst) {
	extend(c, block, inst, true)
}

func ZeroExtend(c *Context, block *ir.Block, inst *ir.Inst) {
	extend(c, block, inst, false)
}

var pmovsxMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMOVSXBW, ir.E16: amd64.PMOVSXWD, ir.E32: amd64.PMOVSXDQ}
var pmovzxMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMOVZXBW, ir.E16: amd64.PMOVZXWD, ir.E32: amd64.PMOVZXDQ}
var punpcklMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PUNPCKLBW, ir.E16: amd64.PUNPCKLWD, ir.E32: amd64.PUNPCKLDQ}

func extend(c *Context, block *ir.Block, inst *ir.Inst, signed bool) {
	if c.Features.Has(cpufeature.SSE4_1) {
		v := c.use(inst.Args[0].Value)
		dst := c.scratch()
		mn := pmovzxMnemonic[inst.Lane]
		if signed {
			mn = pmovsxMnemonic[inst.Lane]
		}
		c.Asm.CompileRegisterToRegister(mn, v, dst)
		c.define(inst.ID, dst)
		return
	}
	v := c.useScratch(block, inst.Args[0].Value)
	if signed {
		switch inst.Lane {
		case ir.E8, ir.E16:
			// Duplicate each lane with itself, then arithmetic-shift right
			// by the original lane width: the high copy's sign bit fills
			// in correctly since it equals the original lane's sign bit.
			c.Asm.CompileRegisterToRegister(punpcklMnemonic[inst.Lane], v, v)
			if inst.Lane == ir.E8 {
				c.Asm.CompileShiftImm8(amd64.PSRAW, v, 8)
			} else {
				c.Asm.CompileShiftImm8(amd64.PSRAD, v, 16)
			}
		default: // E32 -> E64: no native psraq, so build the sign-extension
			// dwords explicitly via a signed compare against zero, then
			// interleave them with the original dwords.
			zero := c.scratch()
			c.zero(zero)
			signDwords := c.scratch()
			c.Asm.CompileRegisterToRegister(amd64.MOVDQA, zero, signDwords)
			c.Asm.CompileRegisterToRegister(amd64.PCMPGTD, v, signDwords)
			c.Asm.CompileRegisterToRegister(amd64.PUNPCKLDQ, signDwords, v)
			c.Alloc.Release(zero)
			c.Alloc.Release(signDwords)
		}
	} else {
		zero := c.scratch()
		c.zero(zero)
		c.Asm.CompileRegisterToRegister(punpcklMnemonic[inst.Lane], zero, v)
		c.Alloc.Release(zero)
	}
	c.define(inst.ID, v)
}
