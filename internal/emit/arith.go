package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var addMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PADDB, ir.E16: amd64.PADDW, ir.E32: amd64.PADDD, ir.E64: amd64.PADDQ,
}

var subMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PSUBB, ir.E16: amd64.PSUBW, ir.E32: amd64.PSUBD, ir.E64: amd64.PSUBQ,
}

// Add and Sub map directly to padd{b,w,d,q}/psub{b,w,d,q} — every lane
// width has had a native SSE2 instruction since the baseline feature set,
// so there is no CPU-feature gating here (spec.md §4.E "AddN, SubN").
func Add(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryArith(c, block, inst, addMnemonic[inst.Lane])
}

func Sub(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryArith(c, block, inst, subMnemonic[inst.Lane])
}

func binaryArith(c *Context, block *ir.Block, inst *ir.Inst, mn amd64.Mnemonic) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	c.Asm.CompileRegisterToRegister(mn, rhs, lhs)
	c.define(inst.ID, lhs)
}

// AbsoluteDifferenceU computes |a-b| unsigned per lane via the classic
// compare-mask-free identity max(a,b)-min(a,b), avoiding a scalar fallback
// for the widths that have native unsigned min/max. E64 has no legacy or
// AVX unsigned min/max at all (only AVX-512VL's vpminuq/vpmaxuq), so that
// lane takes its own VEX-only native path, falling back below AVX-512VL.
func AbsoluteDifferenceU(c *Context, block *ir.Block, inst *ir.Inst) {
	if inst.Lane == ir.E64 {
		absoluteDifferenceU64(c, block, inst)
		return
	}
	minMn, maxMn := minUMnemonicNative(inst.Lane)
	rhs := c.use(inst.Args[1].Value)
	a := c.useScratch(block, inst.Args[0].Value)
	b := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, rhs, b)
	lo := c.scratch()
	hi := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, a, lo)
	c.Asm.CompileRegisterToRegister(minMn, rhs, lo)
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, a, hi)
	c.Asm.CompileRegisterToRegister(maxMn, rhs, hi)
	c.Asm.CompileRegisterToRegister(subMnemonic[inst.Lane], lo, hi)
	c.Alloc.Release(b)
	c.Alloc.Release(lo)
	c.Alloc.Release(a)
	c.define(inst.ID, hi)
}

func minUMnemonicNative(lane ir.Lane) (min, max amd64.Mnemonic) {
	switch lane {
	case ir.E8:
		return amd64.PMINUB, amd64.PMAXUB
	case ir.E16:
		return amd64.PMINUW, amd64.PMAXUW
	default:
		return amd64.PMINUD, amd64.PMAXUD
	}
}

func absoluteDifferenceU64(c *Context, block *ir.Block, inst *ir.Inst) {
	if !c.Features.Has(cpufeature.AVX512VL) {
		twoArgFallback(c, block, inst, c.Scalar.AbsoluteDifferenceU64)
		return
	}
	rhs := c.use(inst.Args[1].Value)
	lhs := c.use(inst.Args[0].Value)
	lo := c.scratch()
	hi := c.scratch()
	c.Asm.CompileVexRRR(amd64.VPMINUQ, lhs, rhs, lo)
	c.Asm.CompileVexRRR(amd64.VPMAXUQ, lhs, rhs, hi)
	c.Asm.CompileRegisterToRegister(amd64.PSUBQ, lo, hi)
	c.Alloc.Release(lo)
	c.define(inst.ID, hi)
}
