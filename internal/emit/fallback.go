package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/fallback"
	"github.com/dynarmic/vecx64/internal/ir"
)

// twoArgFallback is the shared shape behind every two-operand opcode this
// package routes through the scalar fallback runtime: spill both operands
// into the System V red zone, call fn, reload the result into lhs's
// register. See greaterS64Fallback's doc comment for the red-zone caveat
// this shares.
func twoArgFallback(c *Context, block *ir.Block, inst *ir.Inst, fn uintptr) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	scratchBase := c.Alloc.ScratchGPR()
	c.Asm.CompileLoadEffectiveAddress(amd64.Mem{Base: amd64.RSP, Disp: -fallback.TwoArgLayout}, scratchBase)
	fallback.CallTwoArg(c.Asm, fn, scratchBase, lhs, rhs)
	c.Asm.CompileMemoryLoad(amd64.MOVDQA, amd64.Mem{Base: scratchBase, Disp: 0}, lhs)
	c.Alloc.Release(scratchBase)
	c.define(inst.ID, lhs)
}

// twoArgFallbackSaturating is twoArgFallback, additionally OR-ing the
// callback's returned saturation byte into fpsr_qc.
func twoArgFallbackSaturating(c *Context, block *ir.Block, inst *ir.Inst, fn uintptr) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	scratchBase := c.Alloc.ScratchGPR()
	c.Asm.CompileLoadEffectiveAddress(amd64.Mem{Base: amd64.RSP, Disp: -fallback.TwoArgLayout}, scratchBase)
	fallback.CallTwoArgSaturating(c.Asm, fn, scratchBase, lhs, rhs, c.FPSRQCOffset)
	c.Asm.CompileMemoryLoad(amd64.MOVDQA, amd64.Mem{Base: scratchBase, Disp: 0}, lhs)
	c.Alloc.Release(scratchBase)
	c.define(inst.ID, lhs)
}

// oneArgFallback is the one-operand counterpart of twoArgFallback.
func oneArgFallback(c *Context, block *ir.Block, inst *ir.Inst, fn uintptr) {
	v := c.useScratch(block, inst.Args[0].Value)
	scratchBase := c.Alloc.ScratchGPR()
	c.Asm.CompileLoadEffectiveAddress(amd64.Mem{Base: amd64.RSP, Disp: -fallback.OneArgLayout}, scratchBase)
	fallback.CallOneArg(c.Asm, fn, scratchBase, v)
	c.Asm.CompileMemoryLoad(amd64.MOVDQA, amd64.Mem{Base: scratchBase, Disp: 0}, v)
	c.Alloc.Release(scratchBase)
	c.define(inst.ID, v)
}

// oneArgFallbackSaturating is oneArgFallback with the saturation-byte OR.
func oneArgFallbackSaturating(c *Context, block *ir.Block, inst *ir.Inst, fn uintptr) {
	v := c.useScratch(block, inst.Args[0].Value)
	scratchBase := c.Alloc.ScratchGPR()
	c.Asm.CompileLoadEffectiveAddress(amd64.Mem{Base: amd64.RSP, Disp: -fallback.OneArgLayout}, scratchBase)
	fallback.CallOneArgSaturating(c.Asm, fn, scratchBase, v, c.FPSRQCOffset)
	c.Asm.CompileMemoryLoad(amd64.MOVDQA, amd64.Mem{Base: scratchBase, Disp: 0}, v)
	c.Alloc.Release(scratchBase)
	c.define(inst.ID, v)
}
