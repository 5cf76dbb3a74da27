package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var minMax64Native = map[[2]bool]amd64.Mnemonic{
	{true, true}:   amd64.VPMINSQ,
	{true, false}:  amd64.VPMAXSQ,
	{false, true}:  amd64.VPMINUQ,
	{false, false}: amd64.VPMAXUQ,
}

// minMax64 lowers the 64-bit lane of Min/Max{S,U}: vpminsq/vpmaxsq/vpminuq/
// vpmaxuq need AVX-512VL; lacking that, AVX's vpcmpgtq gives the signed
// 64-bit compare SSE2/SSE4.1 have no equivalent for, so the next rung down
// is a compare-blend built on it; lacking AVX entirely, there is no
// multi-instruction SSE2 idiom for a 64-bit signed compare, so this falls
// all the way to the scalar runtime (spec.md §4.E "Min/Max": "64-bit lanes
// need vpminsq/vpcmpgtq or a scalar fallback").
func minMax64(c *Context, block *ir.Block, inst *ir.Inst, signed, isMin bool) {
	if c.Features.Has(cpufeature.AVX512VL) {
		rhs := c.use(inst.Args[1].Value)
		lhs := c.use(inst.Args[0].Value)
		dst := c.scratch()
		c.Asm.CompileVexRRR(minMax64Native[[2]bool{signed, isMin}], lhs, rhs, dst)
		c.define(inst.ID, dst)
		return
	}
	if !c.Features.Has(cpufeature.AVX) {
		minMax64Fallback(c, block, inst, signed, isMin)
		return
	}
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	a := c.scratch()
	b := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, lhs, a)
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, b)
	if !signed {
		bias := c.scratch()
		c.Asm.CompileLoadStaticConst(signBitSplat(ir.E64), bias)
		c.Asm.CompileRegisterToRegister(amd64.PXOR, bias, a)
		c.Asm.CompileRegisterToRegister(amd64.PXOR, bias, b)
		c.Alloc.Release(bias)
	}
	gt := c.scratch()
	c.Asm.CompileVexRRR(amd64.VPCMPGTQ, a, b, gt)
	c.Alloc.Release(a)
	c.Alloc.Release(b)
	if isMin {
		c.Asm.CompilePBlendVB(rhs, lhs, gt)
	} else {
		result := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, result)
		c.Asm.CompilePBlendVB(lhs, result, gt)
		c.Alloc.Release(lhs)
		lhs = result
	}
	c.Alloc.Release(gt)
	c.define(inst.ID, lhs)
}

func minMax64Fallback(c *Context, block *ir.Block, inst *ir.Inst, signed, isMin bool) {
	var fn uintptr
	switch {
	case signed && isMin:
		fn = c.Scalar.MinS64
	case signed && !isMin:
		fn = c.Scalar.MaxS64
	case !signed && isMin:
		fn = c.Scalar.MinU64
	default:
		fn = c.Scalar.MaxU64
	}
	twoArgFallback(c, block, inst, fn)
}
