package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
)

var phaddMnemonic = map[ir.Lane]amd64.Mnemonic{ir.E16: amd64.PHADDW, ir.E32: amd64.PHADDD}

// PairedAdd adds adjacent lanes of the concatenated (a,b) pair into one
// result vector. 16/32-bit lanes map directly to phaddw/phaddd under SSSE3;
// there is no horizontal-add instruction at any feature level for 8-bit or
// 64-bit lanes, and no pre-SSSE3 substitute for 16/32-bit either, so those
// go through the scalar fallback runtime (spec.md §4.E "PairedAdd").
func PairedAdd(c *Context, block *ir.Block, inst *ir.Inst) {
	mn, ok := phaddMnemonic[inst.Lane]
	if ok && c.Features.Has(cpufeature.SSSE3) {
		binaryArith(c, block, inst, mn)
		return
	}
	twoArgFallback(c, block, inst, c.Scalar.PairedAdd[inst.Lane])
}

// PairedAddLower adds adjacent lanes of a single operand, producing a
// result half the width with the upper half undefined/zero — distinct
// enough from PairedAdd's two-operand concatenation that this package
// doesn't try to reuse phadd for it (phadd's NDS shape doesn't line up with
// a single-operand reduction), so it always falls back (spec.md §4.E
// "PairedAddLower").
func PairedAddLower(c *Context, block *ir.Block, inst *ir.Inst) {
	oneArgFallback(c, block, inst, c.Scalar.PairedAddLower[inst.Lane])
}

// PairedAddSignedWiden and PairedAddUnsignedWiden add adjacent lanes into a
// double-width accumulator. pmaddwd computes something adjacent but not
// equivalent (a dot product, not a pairwise sum), so this package doesn't
// risk misusing it and routes both through the fallback runtime (spec.md
// §4.E "PairedAddSignedWiden/PairedAddUnsignedWiden").
func PairedAddSignedWiden(c *Context, block *ir.Block, inst *ir.Inst) {
	oneArgFallback(c, block, inst, c.Scalar.PairedAddSignedWiden[inst.Lane])
}

func PairedAddUnsignedWiden(c *Context, block *ir.Block, inst *ir.Inst) {
	oneArgFallback(c, block, inst, c.Scalar.PairedAddUnsignedWiden[inst.Lane])
}

// PairedMinS, PairedMinU, PairedMaxS and PairedMaxU reduce adjacent lanes
// by min/max rather than sum. No SSE/AVX instruction does a horizontal
// min/max at any lane width (phminposuw only covers one fixed case, 16-bit
// unsigned, over the whole vector rather than pairwise), so these always
// fall back (spec.md §4.E "PairedMinS/U, PairedMaxS/U").
func PairedMinS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PairedMinS[inst.Lane])
}

func PairedMinU(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PairedMinU[inst.Lane])
}

func PairedMaxS(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PairedMaxS[inst.Lane])
}

func PairedMaxU(c *Context, block *ir.Block, inst *ir.Inst) {
	twoArgFallback(c, block, inst, c.Scalar.PairedMaxU[inst.Lane])
}
