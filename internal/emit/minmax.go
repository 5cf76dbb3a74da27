package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

// minSMnemonic, maxSMnemonic, minUMnemonic and maxUMnemonic name the native
// min/max instruction per lane width; the ones outside the SSE2 set
// (pminsb/pminuw/pminud/etc) all landed together in SSE4.1, so this
// package assumes all of them are present when SSE4.1 itself is present.
var minSMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMINSB, ir.E16: amd64.PMINSW, ir.E32: amd64.PMINSD}
var maxSMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMAXSB, ir.E16: amd64.PMAXSW, ir.E32: amd64.PMAXSD}
var minUMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMINUB, ir.E16: amd64.PMINUW, ir.E32: amd64.PMINUD}
var maxUMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E8: amd64.PMAXUB, ir.E16: amd64.PMAXUW, ir.E32: amd64.PMAXUD}

// nativeWithoutSSE41 are the (lane, signedness) pairs the baseline SSE2 set
// already covers natively: 8u and 16s (spec.md §4.E "Min/Max": "8u and 16s
// are native").
func nativeWithoutSSE41(lane ir.Lane, signed bool) bool {
	return (lane == ir.E8 && !signed) || (lane == ir.E16 && signed)
}

// MinS/MaxS/MinU/MaxU lower 8/16/32-bit min/max. Widths natively supported
// since SSE2 emit directly; the rest require SSE4.1 and otherwise fall
// back to a compare-select emulation using the lane's GreaterS primitive
// (pcmpgt + masked xor). 64-bit widths are handled separately by
// minMax64 since they need AVX-512VL or the vpcmpgtq+pblendvb path.
func MinS(c *Context, block *ir.Block, inst *ir.Inst) { minMax(c, block, inst, true, true) }
func MaxS(c *Context, block *ir.Block, inst *ir.Inst) { minMax(c, block, inst, true, false) }
func MinU(c *Context, block *ir.Block, inst *ir.Inst) { minMax(c, block, inst, false, true) }
func MaxU(c *Context, block *ir.Block, inst *ir.Inst) { minMax(c, block, inst, false, false) }

func minMax(c *Context, block *ir.Block, inst *ir.Inst, signed, isMin bool) {
	if inst.Lane == ir.E64 {
		minMax64(c, block, inst, signed, isMin)
		return
	}
	native := nativeWithoutSSE41(inst.Lane, signed) || c.Features.Has(cpufeature.SSE4_1)
	if native {
		var mn amd64.Mnemonic
		switch {
		case signed && isMin:
			mn = minSMnemonic[inst.Lane]
		case signed && !isMin:
			mn = maxSMnemonic[inst.Lane]
		case !signed && isMin:
			mn = minUMnemonic[inst.Lane]
		default:
			mn = maxUMnemonic[inst.Lane]
		}
		rhs := c.use(inst.Args[1].Value)
		lhs := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileRegisterToRegister(mn, rhs, lhs)
		c.define(inst.ID, lhs)
		return
	}
	compareBlendMinMax(c, block, inst, signed, isMin)
}

// compareBlendMinMax emulates min/max pre-SSE4.1: compute a > b with
// pcmpgt (there is no unsigned pcmpgt, so the unsigned path biases both
// operands by flipping the sign bit first, making an unsigned compare look
// signed — the classic SSE2 trick), then select a or b per-lane by
// XOR-ing (a ^ b) & mask into one of them, which needs only SSE2.
func compareBlendMinMax(c *Context, block *ir.Block, inst *ir.Inst, signed, isMin bool) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	a := c.scratch()
	b := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, a)
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, b)
	if !signed {
		bias := c.scratch()
		c.Asm.CompileLoadStaticConst(signBitSplat(inst.Lane), bias)
		c.Asm.CompileRegisterToRegister(amd64.PXOR, bias, a)
		c.Asm.CompileRegisterToRegister(amd64.PXOR, bias, b)
		c.Alloc.Release(bias)
	}
	gt := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, a, gt)
	c.Asm.CompileRegisterToRegister(greaterSMnemonic[inst.Lane], b, gt)
	c.Alloc.Release(a)
	c.Alloc.Release(b)
	// gt now holds, per lane, all-ones where (biased) lhs > (biased) rhs.
	// diff = (lhs ^ rhs) & gt flips either operand into the other there.
	diff := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, diff)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, rhs, diff)
	c.Asm.CompileRegisterToRegister(amd64.PAND, gt, diff)
	if isMin {
		// min = gt ? rhs : lhs
		c.Asm.CompileRegisterToRegister(amd64.PXOR, diff, lhs)
	} else {
		// max = gt ? lhs : rhs — built by flipping a copy of rhs.
		result := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, result)
		c.Asm.CompileRegisterToRegister(amd64.PXOR, diff, result)
		c.Alloc.Release(lhs)
		lhs = result
	}
	c.Alloc.Release(diff)
	c.Alloc.Release(gt)
	c.define(inst.ID, lhs)
}

func signBitSplat(lane ir.Lane) [16]byte {
	var out [16]byte
	switch lane {
	case ir.E8:
		for i := range out {
			out[i] = 0x80
		}
	case ir.E16:
		for i := 0; i < 16; i += 2 {
			out[i+1] = 0x80
		}
	case ir.E64:
		out[7] = 0x80
		out[15] = 0x80
	default:
		for i := 0; i < 16; i += 4 {
			out[i+3] = 0x80
		}
	}
	return out
}
