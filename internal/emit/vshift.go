package emit

import "github.com/dynarmic/vecx64/internal/ir"

// LogicalVShiftS and LogicalVShiftU lower the per-lane dynamic vector
// shift: each lane shifts by its own signed byte amount taken from the
// paired operand, with the boundary behavior spec.md §4.E spells out for
// |shift| >= bit-width (zero for unsigned, arithmetic sign-fill for
// signed on a large negative shift). No SSE/AVX instruction captures that
// predicate directly, so this is always routed through the scalar
// fallback runtime rather than approximated with a native shift.
func LogicalVShiftS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.LogicalVShiftS[inst.Lane])
}

func LogicalVShiftU(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.LogicalVShiftU[inst.Lane])
}
