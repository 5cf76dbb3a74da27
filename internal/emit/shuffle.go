package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

// InterleaveLower and InterleaveUpper are exactly punpckl*/punpckh* — every
// lane width has had both since the baseline SSE2 set (spec.md §4.E
// "InterleaveLower/Upper").
var interleaveLowMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PUNPCKLBW, ir.E16: amd64.PUNPCKLWD, ir.E32: amd64.PUNPCKLDQ, ir.E64: amd64.PUNPCKLQDQ,
}

var interleaveHighMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PUNPCKHBW, ir.E16: amd64.PUNPCKHWD, ir.E32: amd64.PUNPCKHDQ, ir.E64: amd64.PUNPCKHQDQ,
}

func InterleaveLower(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryArith(c, block, inst, interleaveLowMnemonic[inst.Lane])
}

func InterleaveUpper(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryArith(c, block, inst, interleaveHighMnemonic[inst.Lane])
}

// evenDwordImm/oddDwordImm pick PSHUFD immediates that gather a vector's
// even (0,2) or odd (1,3) dwords into its low two dword slots, leaving the
// top two slots duplicated rather than meaningful — callers only read the
// low 64 bits of the result via a following punpcklqdq.
const evenDwordImm = 0x88
const oddDwordImm = 0xDD

// DeinterleaveEven and DeinterleaveOdd gather, respectively, every other
// lane of the (a,b) pair starting at index 0 or 1, producing a.evens then
// b.evens concatenated (or odds). 64-bit lanes need no shuffle at all —
// punpcklqdq/punpckhqdq already pick exactly those lanes. 32-bit gathers
// with pshufd first. 8/16-bit need a byte-level gather only pshufb can do,
// so those widths need SSSE3 and otherwise fall back (spec.md §4.E
// "DeinterleaveEven/Odd").
func DeinterleaveEven(c *Context, block *ir.Block, inst *ir.Inst) {
	deinterleave(c, block, inst, true)
}

func DeinterleaveOdd(c *Context, block *ir.Block, inst *ir.Inst) {
	deinterleave(c, block, inst, false)
}

func deinterleave(c *Context, block *ir.Block, inst *ir.Inst, even bool) {
	switch inst.Lane {
	case ir.E64:
		mn := amd64.PUNPCKLQDQ
		if !even {
			mn = amd64.PUNPCKHQDQ
		}
		binaryArith(c, block, inst, mn)
	case ir.E32:
		imm := amd64.Mode(evenDwordImm)
		if !even {
			imm = oddDwordImm
		}
		rhs := c.use(inst.Args[1].Value)
		lhs := c.useScratch(block, inst.Args[0].Value)
		gatheredB := c.scratch()
		c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, rhs, gatheredB, imm)
		c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, lhs, lhs, imm)
		c.Asm.CompileRegisterToRegister(amd64.PUNPCKLQDQ, gatheredB, lhs)
		c.Alloc.Release(gatheredB)
		c.define(inst.ID, lhs)
	case ir.E8, ir.E16:
		if !c.Features.Has(cpufeature.SSSE3) {
			twoArgFallback(c, block, inst, deinterleaveFallback(c, inst.Lane, even))
			return
		}
		deinterleaveBytewise(c, block, inst, even)
	}
}

func deinterleaveFallback(c *Context, lane ir.Lane, even bool) uintptr {
	if even {
		return c.Scalar.DeinterleaveEven[lane]
	}
	return c.Scalar.DeinterleaveOdd[lane]
}

// byteGatherMask builds the pshufb index vector selecting either the even
// or odd byte of each pair (8-bit lanes), or the even/odd halfword's two
// bytes (16-bit lanes, byte pairs kept adjacent to preserve word order).
// Slots past the 8 bytes pshufb needs are marked 0x80 so pshufb zero-fills
// them rather than copying don't-care garbage.
func byteGatherMask(lane ir.Lane, even bool) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = 0x80
	}
	if lane == ir.E8 {
		start := 0
		if !even {
			start = 1
		}
		for i := 0; i < 8; i++ {
			out[i] = byte(start + i*2)
		}
		return out
	}
	start := 0
	if !even {
		start = 2
	}
	for i := 0; i < 4; i++ {
		out[i*2] = byte(start + i*4)
		out[i*2+1] = byte(start + i*4 + 1)
	}
	return out
}

func deinterleaveBytewise(c *Context, block *ir.Block, inst *ir.Inst, even bool) {
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(byteGatherMask(inst.Lane, even), mask)
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	gatheredB := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, gatheredB)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, mask, gatheredB)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, mask, lhs)
	c.Alloc.Release(mask)
	c.Asm.CompileRegisterToRegister(amd64.PUNPCKLQDQ, gatheredB, lhs)
	c.Alloc.Release(gatheredB)
	c.define(inst.ID, lhs)
}

// Broadcast replicates one lane to every lane of the same width. 32-bit is
// a single pshufd; 16-bit needs pshuflw/pshufhw (which only reach the half
// the source lane lives in) followed by a pshufd to mirror that half into
// the other; 8-bit needs pshufb under SSSE3 (no byte-granularity shuffle
// exists without it) and otherwise falls back; 64-bit is a self-punpck
// (spec.md §4.E "Broadcast/BroadcastLower").
func Broadcast(c *Context, block *ir.Block, inst *ir.Inst) {
	broadcast(c, block, inst, false)
}

// BroadcastLower is Broadcast restricted to the low 64 bits, zeroing the
// upper half — the half-width "Lower" convention PairedAddLower and
// friends also use (spec.md §4.E "BroadcastLower").
func BroadcastLower(c *Context, block *ir.Block, inst *ir.Inst) {
	broadcast(c, block, inst, true)
}

func broadcast(c *Context, block *ir.Block, inst *ir.Inst, lowerOnly bool) {
	lane := imm8(inst, 1)
	switch inst.Lane {
	case ir.E32:
		v := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, v, v, laneBroadcastImm(lane))
		if lowerOnly {
			zeroUpperQword(c, v)
		}
		c.define(inst.ID, v)
	case ir.E16:
		v := c.useScratch(block, inst.Args[0].Value)
		if lane < 4 {
			c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFLW, v, v, laneBroadcastImm(lane))
			if !lowerOnly {
				c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, v, v, 0x44)
			}
		} else {
			c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFHW, v, v, laneBroadcastImm(lane-4))
			c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, v, v, 0xEE)
			if lowerOnly {
				c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, v, v, 0x44)
			}
		}
		if lowerOnly {
			zeroUpperQword(c, v)
		}
		c.define(inst.ID, v)
	case ir.E64:
		v := c.useScratch(block, inst.Args[0].Value)
		if lane == 0 {
			c.Asm.CompileRegisterToRegister(amd64.PUNPCKLQDQ, v, v)
		} else {
			c.Asm.CompileRegisterToRegister(amd64.PUNPCKHQDQ, v, v)
		}
		if lowerOnly {
			zeroUpperQword(c, v)
		}
		c.define(inst.ID, v)
	case ir.E8:
		if !c.Features.Has(cpufeature.SSSE3) {
			fn := c.Scalar.Broadcast[ir.E8]
			if lowerOnly {
				fn = c.Scalar.BroadcastLower[ir.E8]
			}
			oneArgFallback(c, block, inst, fn)
			return
		}
		v := c.useScratch(block, inst.Args[0].Value)
		idx := c.scratch()
		c.Asm.CompileLoadStaticConst(splatU8(byte(lane)), idx)
		c.Asm.CompileRegisterToRegister(amd64.PSHUFB, idx, v)
		c.Alloc.Release(idx)
		if lowerOnly {
			zeroUpperQword(c, v)
		}
		c.define(inst.ID, v)
	}
}

// zeroUpperQword clears the high 64 bits of v, used by the BroadcastLower
// half-width variants.
func zeroUpperQword(c *Context, v amd64.Register) {
	mask := c.scratch()
	c.Asm.CompileLoadStaticConst(lowQwordMask, mask)
	c.Asm.CompileRegisterToRegister(amd64.PAND, mask, v)
	c.Alloc.Release(mask)
}

var lowQwordMask = [16]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0}

// ShuffleHighHalfwords, ShuffleLowHalfwords and ShuffleWords lower directly
// to pshufhw/pshuflw/pshufd with the instruction's immediate control byte
// passed straight through — all three have been native since the baseline
// SSE2 set (spec.md §4.E "Shuffle").
func ShuffleHighHalfwords(c *Context, block *ir.Block, inst *ir.Inst) {
	shuffleImm(c, block, inst, amd64.PSHUFHW)
}

func ShuffleLowHalfwords(c *Context, block *ir.Block, inst *ir.Inst) {
	shuffleImm(c, block, inst, amd64.PSHUFLW)
}

func ShuffleWords(c *Context, block *ir.Block, inst *ir.Inst) {
	shuffleImm(c, block, inst, amd64.PSHUFD)
}

func shuffleImm(c *Context, block *ir.Block, inst *ir.Inst, mn amd64.Mnemonic) {
	v := c.useScratch(block, inst.Args[0].Value)
	n := imm8(inst, 1)
	c.Asm.CompileRegisterToRegisterImm8(mn, v, v, n)
	c.define(inst.ID, v)
}

// Extract concatenates (a,b) and returns the 16-byte window starting at
// byte offset n: (a >> n*8) | (b << (16-n)*8), built from psrldq/pslldq/
// por since this package's assembler has no palignr (spec.md §4.E
// "Extract/ExtractLower").
func Extract(c *Context, block *ir.Block, inst *ir.Inst) {
	n := imm8(inst, 2)
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	if n == 0 {
		c.define(inst.ID, lhs)
		return
	}
	bCopy := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, bCopy)
	c.Asm.CompileShiftImm8(amd64.PSRLDQ, lhs, n)
	c.Asm.CompileShiftImm8(amd64.PSLLDQ, bCopy, 16-n)
	c.Asm.CompileRegisterToRegister(amd64.POR, bCopy, lhs)
	c.Alloc.Release(bCopy)
	c.define(inst.ID, lhs)
}

// ExtractLower is Extract restricted to an 8-byte window, for the
// half-width "Lower" pair shape (spec.md §4.E "ExtractLower").
func ExtractLower(c *Context, block *ir.Block, inst *ir.Inst) {
	n := imm8(inst, 2)
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	if n == 0 {
		zeroUpperQword(c, lhs)
		c.define(inst.ID, lhs)
		return
	}
	bCopy := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, bCopy)
	c.Asm.CompileShiftImm8(amd64.PSRLDQ, lhs, n)
	c.Asm.CompileShiftImm8(amd64.PSLLDQ, bCopy, 8-n)
	c.Asm.CompileRegisterToRegister(amd64.POR, bCopy, lhs)
	c.Alloc.Release(bCopy)
	zeroUpperQword(c, lhs)
	c.define(inst.ID, lhs)
}
