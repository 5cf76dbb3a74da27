package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/ir"
)

// ZeroVector emits pxor reg,reg into a fresh scratch and binds it.
func ZeroVector(c *Context, block *ir.Block, inst *ir.Inst) {
	v := c.scratch()
	c.zero(v)
	c.define(inst.ID, v)
}

// ZeroUpper zeros the upper 64 bits of v via movq reg,reg (the F3 0F 7E
// form, which the SDM defines to always clear bits 64-127 of the
// destination).
func ZeroUpper(c *Context, block *ir.Block, inst *ir.Inst) {
	v := c.useScratch(block, inst.Args[0].Value)
	c.Asm.CompileRegisterToRegister(amd64.MOVQ, v, v)
	c.define(inst.ID, v)
}
