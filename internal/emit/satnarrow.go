package emit

import "github.com/dynarmic/vecx64/internal/ir"

// SignedSaturatedNarrowToSigned, SignedSaturatedNarrowToUnsigned and
// UnsignedSaturatedNarrow all narrow a double-width pair of operands into
// one, clamping each lane to the destination's representable range and
// recording whether any lane actually clamped in fpsr_qc. The native
// packss/packus family only covers 16<-32 and 8<-16 at fixed widths; the
// general case (any width, both saturation directions) needs a widen-back-
// up-and-compare dance to detect the saturation bit correctly, and this
// package could not derive that without test vectors to check the edge
// cases against, so the whole family routes through the scalar fallback
// runtime rather than risk a silently wrong fpsr_qc (spec.md §4.E "Narrow/
// widen": "saturating narrows set fpsr_qc on precision loss").
func SignedSaturatedNarrowToSigned(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallbackSaturating(c, block, inst, c.Scalar.SignedSaturatedNarrowToSigned[inst.Lane])
}

func SignedSaturatedNarrowToUnsigned(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallbackSaturating(c, block, inst, c.Scalar.SignedSaturatedNarrowToUnsigned[inst.Lane])
}

func UnsignedSaturatedNarrow(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallbackSaturating(c, block, inst, c.Scalar.UnsignedSaturatedNarrow[inst.Lane])
}
