package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var nibblePopcountLUT = [16]byte{0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4}
var nibbleReverseLUT = [16]byte{0x0, 0x8, 0x4, 0xC, 0x2, 0xA, 0x6, 0xE, 0x1, 0x9, 0x5, 0xD, 0x3, 0xB, 0x7, 0xF}

// PopulationCount counts set bits per byte. AVX512BITALG's vpopcntb does
// this in one instruction; otherwise this package uses Wojciech Muła's
// nibble-lookup trick: split each byte into its two nibbles, look each up
// in a 16-entry popcount table via pshufb, and add the halves. Without
// SSSE3 for pshufb there is no byte-granularity table lookup at all, so
// that case falls back (spec.md §4.E "PopulationCount").
func PopulationCount(c *Context, block *ir.Block, inst *ir.Inst) {
	if c.Features.Has(cpufeature.AVX512BITALG) {
		v := c.use(inst.Args[0].Value)
		dst := c.scratch()
		c.Asm.CompileVexRR(amd64.VPOPCNTB, v, dst)
		c.define(inst.ID, dst)
		return
	}
	if !c.Features.Has(cpufeature.SSSE3) {
		oneArgFallback(c, block, inst, c.Scalar.PopulationCount)
		return
	}
	v := c.useScratch(block, inst.Args[0].Value)
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatBytes(0, 0x0F), mask)
	lo := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, lo)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, lo)
	hi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, hi)
	c.Asm.CompileShiftImm8(amd64.PSRLW, hi, 4)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, hi)
	c.Alloc.Release(mask)
	lut := c.scratch()
	c.Asm.CompileLoadStaticConst(nibblePopcountLUT, lut)
	lutHi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lut, lutHi)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, lo, lut)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, hi, lutHi)
	c.Alloc.Release(lo)
	c.Alloc.Release(hi)
	c.Asm.CompileRegisterToRegister(amd64.PADDB, lutHi, lut)
	c.Alloc.Release(lutHi)
	c.Alloc.Release(v)
	c.define(inst.ID, lut)
}

// ReverseBits reverses bit order within each byte. The SSSE3 nibble-lookup
// trick reverses each nibble independently via pshufb against a 16-entry
// reversal table, then swaps the two reversed nibbles back into the
// opposite half of the byte (reversing a whole byte reverses its nibble
// order too). Without SSSE3 this falls back (spec.md §4.E "ReverseBits").
func ReverseBits(c *Context, block *ir.Block, inst *ir.Inst) {
	if !c.Features.Has(cpufeature.SSSE3) {
		oneArgFallback(c, block, inst, c.Scalar.ReverseBits)
		return
	}
	v := c.useScratch(block, inst.Args[0].Value)
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatBytes(0, 0x0F), mask)
	lo := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, lo)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, lo)
	hi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, hi)
	c.Asm.CompileShiftImm8(amd64.PSRLW, hi, 4)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, hi)
	c.Alloc.Release(mask)
	c.Alloc.Release(v)
	lut := c.scratch()
	c.Asm.CompileLoadStaticConst(nibbleReverseLUT, lut)
	lutHi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lut, lutHi)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, lo, lut)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, hi, lutHi)
	c.Alloc.Release(lo)
	c.Alloc.Release(hi)
	c.Asm.CompileShiftImm8(amd64.PSLLW, lut, 4)
	c.Asm.CompileRegisterToRegister(amd64.POR, lutHi, lut)
	c.Alloc.Release(lutHi)
	c.define(inst.ID, lut)
}
