package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var pabsMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PABSB, ir.E16: amd64.PABSW, ir.E32: amd64.PABSD}

// Abs lowers Abs{8,16,32} to pabs{b,w,d} under SSSE3, else to the
// mask-and-subtract identity abs(x) = (x ^ m) - m where m is x arithmetic-
// shifted right by the full lane width minus one (all sign bits). Abs64
// always uses that identity (vpabsq needs AVX-512VL, which isn't assumed
// present) or vpabsq when it is.
func Abs(c *Context, block *ir.Block, inst *ir.Inst) {
	v, _ := absInto(c, block, inst.Args[0].Value, inst.Lane)
	c.define(inst.ID, v)
}

// absInto computes |v| into a (possibly new) register and also reports
// whether it used a native abs instruction (true) or the sign-mask identity
// (false).
func absInto(c *Context, block *ir.Block, v ir.ValueID, lane ir.Lane) (result amd64.Register, usedNative bool) {
	if lane != ir.E64 && c.Features.Has(cpufeature.SSSE3) {
		reg := c.useScratch(block, v)
		c.Asm.CompileRegisterToRegister(pabsMnemonic[lane], reg, reg)
		return reg, true
	}
	if lane == ir.E64 && c.Features.Has(cpufeature.AVX512VL) {
		src := c.use(v)
		dst := c.scratch()
		c.Asm.CompileVexRR(amd64.VPABSQ, src, dst)
		return dst, true
	}
	reg := c.useScratch(block, v)
	mask := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, reg, mask)
	signShiftFull(c, mask, lane)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, mask, reg)
	c.Asm.CompileRegisterToRegister(subMnemonic[lane], mask, reg)
	c.Alloc.Release(mask)
	return reg, false
}

// signShiftFull replaces v with its per-lane arithmetic shift right by
// bit-width-1, i.e. all-ones where the lane was negative, all-zeros
// otherwise — the sign mask the abs identity needs.
func signShiftFull(c *Context, v amd64.Register, lane ir.Lane) {
	switch lane {
	case ir.E8:
		hi := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, v, hi)
		c.Asm.CompileRegisterToRegister(amd64.PUNPCKHBW, v, hi)
		c.Asm.CompileRegisterToRegister(amd64.PUNPCKLBW, v, v)
		c.Asm.CompileShiftImm8(amd64.PSRAW, v, 15)
		c.Asm.CompileShiftImm8(amd64.PSRAW, hi, 15)
		c.Asm.CompileRegisterToRegister(amd64.PACKSSWB, hi, v)
		c.Alloc.Release(hi)
	case ir.E16:
		c.Asm.CompileShiftImm8(amd64.PSRAW, v, 15)
	case ir.E32:
		c.Asm.CompileShiftImm8(amd64.PSRAD, v, 31)
	case ir.E64:
		if c.Features.Has(cpufeature.AVX512VL) {
			c.Asm.CompileVexShiftImm8(v, v, 63)
			return
		}
		signMask := c.scratch()
		c.Asm.CompileLoadStaticConst(splatU64(0x8000000000000000), signMask)
		c.Asm.CompileRegisterToRegister(amd64.PAND, v, signMask)
		c.Asm.CompileShiftImm8(amd64.PSRLQ, signMask, 63)
		zero := c.scratch()
		c.zero(zero)
		c.Asm.CompileRegisterToRegister(amd64.PSUBQ, signMask, zero)
		// zero now holds 0-signMask per lane: all-ones where the sign bit
		// was set, all-zeros otherwise — exactly the mask this needs.
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, zero, v)
		c.Alloc.Release(signMask)
		c.Alloc.Release(zero)
	}
}

var intMinConst = map[ir.Lane][16]byte{
	ir.E8:  splatBytes(8, 0x80),
	ir.E16: splatWords(0x8000),
	ir.E32: splatDwords(0x80000000),
	ir.E64: splatU64(0x8000000000000000),
}

// satMaskPattern is the pmovmskb test pattern for the lane width, picking
// one representative bit per lane at the lane's last byte (spec.md §4.E
// "SignedSaturatedAbs": "mask per lane width 0xFFFF/0xAAAA/0x8888/0x8080").
var satMaskPattern = map[ir.Lane]uint16{
	ir.E8:  0xFFFF,
	ir.E16: 0xAAAA,
	ir.E32: 0x8888,
	ir.E64: 0x8080,
}

var intMaxConst = map[ir.Lane][16]byte{
	ir.E8:  splatBytes(8, 0x7F),
	ir.E16: splatWords(0x7FFF),
	ir.E32: splatDwords(0x7FFFFFFF),
	ir.E64: splatU64(0x7FFFFFFFFFFFFFFF),
}

// SignedSaturatedAbs computes |v| clamped so that INT_MIN saturates to
// INT_MAX, and ORs a byte into fpsr_qc recording whether that clamp fired
// on any lane (spec.md §4.E "SignedSaturatedAbs").
func SignedSaturatedAbs(c *Context, block *ir.Block, inst *ir.Inst) {
	lane := inst.Lane
	orig := c.use(inst.Args[0].Value)
	isMin := c.scratch()
	c.Asm.CompileLoadStaticConst(intMinConst[lane], isMin)
	eqMinMnemonic(c, orig, isMin, lane)
	// isMin now holds all-ones per lane where that lane equalled INT_MIN.
	absVal, _ := absInto(c, block, inst.Args[0].Value, lane)
	maxConst := c.scratch()
	c.Asm.CompileLoadStaticConst(intMaxConst[lane], maxConst)
	c.Asm.CompilePBlendVB(maxConst, absVal, isMin)
	c.Alloc.Release(maxConst)
	orSaturationMask(c, isMin, satMaskPattern[lane])
	c.Alloc.Release(isMin)
	c.define(inst.ID, absVal)
}

// eqMinMnemonic computes mask = (v == constReg) per lane into constReg,
// using pcmpeqq under SSE4.1 or the pcmpeqd+pshufd-0xB1+pand emulation
// otherwise for 64-bit lanes (the same technique Equal64 uses).
func eqMinMnemonic(c *Context, v, constReg amd64.Register, lane ir.Lane) {
	if lane != ir.E64 {
		c.Asm.CompileRegisterToRegister(equalMnemonic[lane], v, constReg)
		return
	}
	if c.Features.Has(cpufeature.SSE4_1) {
		c.Asm.CompileRegisterToRegister(amd64.PCMPEQQ, v, constReg)
		return
	}
	c.Asm.CompileRegisterToRegister(amd64.PCMPEQD, v, constReg)
	shuffled := c.scratch()
	c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, constReg, shuffled, 0xB1)
	c.Asm.CompileRegisterToRegister(amd64.PAND, shuffled, constReg)
	c.Alloc.Release(shuffled)
}

// orSaturationMask folds a multi-bit pmovmskb test down to a single AL bit
// and ORs it into fpsr_qc via the single-byte-only CompileOrALToMemory8:
// AND the movmskb result with pattern, add 0xFFFF and shift right by 16
// (leaving 1 when any tested bit was set, else 0), move into eax, then OR
// AL into memory.
func orSaturationMask(c *Context, mask amd64.Register, pattern uint16) {
	bits := c.Alloc.ScratchGPR()
	c.Asm.CompileRegisterToRegister(amd64.PMOVMSKB, mask, bits)
	patternReg := c.Alloc.ScratchGPR()
	c.Asm.CompileMoveImmediate64(patternReg, uint64(pattern))
	c.Asm.CompileRegisterToRegister(amd64.ANDL, patternReg, bits)
	c.Alloc.Release(patternReg)
	folded := c.Alloc.ScratchGPR()
	c.Asm.CompileMoveImmediate64(folded, 0xFFFF)
	c.Asm.CompileRegisterToRegister(amd64.ADDL, folded, bits)
	c.Asm.CompileShiftGPRImm8(amd64.SHRL, bits, 16)
	c.Alloc.Release(folded)
	c.Asm.CompileRegisterToRegister(amd64.MOVL, bits, amd64.RAX)
	c.Alloc.Release(bits)
	c.Asm.CompileOrALToMemory8(amd64.Mem{Base: amd64.R15, Disp: c.FPSRQCOffset})
}

func splatBytes(_ int, v byte) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = v
	}
	return out
}

func splatWords(v uint16) [16]byte {
	var out [16]byte
	for i := 0; i < 16; i += 2 {
		out[i] = byte(v)
		out[i+1] = byte(v >> 8)
	}
	return out
}

func splatDwords(v uint32) [16]byte {
	var out [16]byte
	for i := 0; i < 16; i += 4 {
		out[i] = byte(v)
		out[i+1] = byte(v >> 8)
		out[i+2] = byte(v >> 16)
		out[i+3] = byte(v >> 24)
	}
	return out
}

// AbsoluteDifferenceS computes |a-b| signed per lane: mask = (b > a) by a
// signed compare, then (a-b ^ mask) - mask negates the difference exactly
// where b > a, so a difference too wide for the signed lane range still
// comes out as its unsigned magnitude (spec.md §4.E "AbsoluteDifferenceS/U").
func AbsoluteDifferenceS(c *Context, block *ir.Block, inst *ir.Inst) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	gt := greaterSMnemonic[inst.Lane]
	if inst.Lane == ir.E64 {
		gt = amd64.PCMPGTQ
	}
	mask := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, mask)
	c.Asm.CompileRegisterToRegister(gt, lhs, mask)
	c.Asm.CompileRegisterToRegister(subMnemonic[inst.Lane], rhs, lhs)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, mask, lhs)
	c.Asm.CompileRegisterToRegister(subMnemonic[inst.Lane], mask, lhs)
	c.Alloc.Release(mask)
	c.define(inst.ID, lhs)
}
