package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/ir"
)

// And, Or, Eor lower directly to their single native mnemonic: there is no
// CPU-feature gating, every target since SSE2 has pand/por/pxor.
func And(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryBitwise(c, block, inst, amd64.PAND)
}

func Or(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryBitwise(c, block, inst, amd64.POR)
}

func Eor(c *Context, block *ir.Block, inst *ir.Inst) {
	binaryBitwise(c, block, inst, amd64.PXOR)
}

func binaryBitwise(c *Context, block *ir.Block, inst *ir.Inst, mn amd64.Mnemonic) {
	rhs := c.use(inst.Args[1].Value)
	lhs := c.useScratch(block, inst.Args[0].Value)
	c.Asm.CompileRegisterToRegister(mn, rhs, lhs)
	c.define(inst.ID, lhs)
}

// Not is pxor against an all-ones mask synthesised with pcmpeqw reg,reg
// (spec.md §4.E "Not"), never via a constant-pool round trip.
func Not(c *Context, block *ir.Block, inst *ir.Inst) {
	v := c.useScratch(block, inst.Args[0].Value)
	ones := c.scratch()
	c.allOnes(ones)
	c.Asm.CompileRegisterToRegister(amd64.PXOR, ones, v)
	c.Alloc.Release(ones)
	c.define(inst.ID, v)
}
