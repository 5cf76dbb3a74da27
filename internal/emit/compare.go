package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var equalMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PCMPEQB, ir.E16: amd64.PCMPEQW, ir.E32: amd64.PCMPEQD,
}

var greaterSMnemonic = map[ir.Lane]amd64.Mnemonic{
	ir.E8: amd64.PCMPGTB, ir.E16: amd64.PCMPGTW, ir.E32: amd64.PCMPGTD,
}

// Equal lowers Equal{8,16,32} to their native pcmpeq, Equal64 to pcmpeqq on
// SSE4.1 or the pcmpeqd+pshufd-0xB1+pand emulation otherwise, and Equal128
// by further ANDing with the pshufd-0x4E of that result (spec.md §4.E
// "Compare"). Every compare returns an all-ones mask per lane on true,
// all-zeros on false.
func Equal(c *Context, block *ir.Block, inst *ir.Inst) {
	if inst.Lane == ir.E8 || inst.Lane == ir.E16 || inst.Lane == ir.E32 {
		rhs := c.use(inst.Args[1].Value)
		lhs := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileRegisterToRegister(equalMnemonic[inst.Lane], rhs, lhs)
		c.define(inst.ID, lhs)
		return
	}
	equal64Or128(c, block, inst, inst.Lane == ir.E128)
}

func equal64Or128(c *Context, block *ir.Block, inst *ir.Inst, full128 bool) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	if c.Features.Has(cpufeature.SSE4_1) {
		c.Asm.CompileRegisterToRegister(amd64.PCMPEQQ, rhs, lhs)
	} else {
		c.Asm.CompileRegisterToRegister(amd64.PCMPEQD, rhs, lhs)
		shuffled := c.scratch()
		c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, lhs, shuffled, 0xB1)
		c.Asm.CompileRegisterToRegister(amd64.PAND, shuffled, lhs)
		c.Alloc.Release(shuffled)
	}
	if full128 {
		shuffled := c.scratch()
		c.Asm.CompileRegisterToRegisterImm8(amd64.PSHUFD, lhs, shuffled, 0x4E)
		c.Asm.CompileRegisterToRegister(amd64.PAND, shuffled, lhs)
		c.Alloc.Release(shuffled)
	}
	c.define(inst.ID, lhs)
}

// GreaterS lowers GreaterS{8,16,32} to native pcmpgt, GreaterS64 to pcmpgtq
// on SSE4.2, and otherwise falls back (the non-SSE4.2 emulation of a signed
// 64-bit compare needs a borrow-aware scalar path, so this package routes
// it through the fallback runtime rather than the multi-instruction SSE2
// idiom).
func GreaterS(c *Context, block *ir.Block, inst *ir.Inst, fb func(*Context, *ir.Block, *ir.Inst)) {
	if inst.Lane != ir.E64 {
		rhs := c.use(inst.Args[1].Value)
		lhs := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileRegisterToRegister(greaterSMnemonic[inst.Lane], rhs, lhs)
		c.define(inst.ID, lhs)
		return
	}
	if c.Features.Has(cpufeature.SSE4_2) {
		rhs := c.use(inst.Args[1].Value)
		lhs := c.useScratch(block, inst.Args[0].Value)
		c.Asm.CompileRegisterToRegister(amd64.PCMPGTQ, rhs, lhs)
		c.define(inst.ID, lhs)
		return
	}
	fb(c, block, inst)
}

// greaterS64Fallback is the GreaterS64 fallback closure wired into
// dispatch.go: spills both operands, calls the engine-registered scalar
// GreaterS64 callback via twoArgFallback, and reloads its boolean-per-lane
// mask result.
//
// twoArgFallback addresses its scratch buffer off rsp directly within the
// System V red zone rather than reserving frame space with sub/add rsp;
// this is only sound when the surrounding emitted block is leaf code with
// respect to the host stack (no other call clobbers the red zone between
// here and the reload). The engine embedding this package must guarantee
// that, or switch the helper to lea off an allocator-managed frame offset
// instead.
func greaterS64Fallback(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.GreaterS64)
}
