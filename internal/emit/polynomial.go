package emit

import "github.com/dynarmic/vecx64/internal/ir"

// PolynomialMultiply and PolynomialMultiplyLong compute GF(2)-polynomial
// (carry-less) multiplication. x86 only gained a carry-less multiply with
// PCLMULQDQ (not in this package's mnemonic set), and that instruction's
// operand shape (one 64-bit polynomial pair per call, selected by an
// immediate) doesn't line up with lane-parallel SIMD multiply the way this
// package's other binary ops do, so both opcodes always go through the
// scalar fallback runtime (spec.md §4.E "PolynomialMultiply/Long").
func PolynomialMultiply(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PolynomialMultiply)
}

func PolynomialMultiplyLong(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PolynomialMultiplyLong[inst.Lane])
}
