package emit

import "github.com/dynarmic/vecx64/internal/ir"

// RoundingShiftLeftS and RoundingShiftLeftU shift each lane left (or right,
// for a negative per-lane shift amount encoded in the second operand) with
// round-to-nearest on the bit shifted out, per ARM's SRSHL/URSHL. x86's
// variable-shift instructions (vpsllvd/vpsrlvd and friends) take an
// unsigned shift count and never round, and don't support the negative/
// per-lane-direction encoding this opcode needs, so both always go through
// the scalar fallback runtime (spec.md §4.E "RoundingShiftLeftS/U").
func RoundingShiftLeftS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.RoundingShiftLeftS[inst.Lane])
}

func RoundingShiftLeftU(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.RoundingShiftLeftU[inst.Lane])
}
