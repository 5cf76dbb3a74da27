package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/fallback"
	"github.com/dynarmic/vecx64/internal/ir"
)

// VectorTableLookup implements `result[i] = indices[i]/16 < tableSize ?
// table[indices[i]/16][indices[i]%16] : defaults[i]`. inst.Args is
// (defaults, table_inst, indices), where table_inst is the OpVectorTable
// instruction holding 1-4 table operands (spec.md §4.E "Table lookup").
// OpVectorTable itself was never emitted — see VectorTable's doc comment —
// so the table registers are fetched straight off its Args here.
func VectorTableLookup(c *Context, block *ir.Block, inst *ir.Inst) {
	tableInst := block.Get(inst.Args[1].Value)
	tableCount := len(tableInst.Args)
	defaultsIsZero := block.Get(inst.Args[0].Value).Op == ir.OpZeroVector

	if tableCount == 1 && defaultsIsZero && c.Features.Has(cpufeature.SSSE3) {
		table := c.use(tableInst.Args[0].Value)
		vectorTableLookupSingleZero(c, block, inst, table)
		return
	}
	if c.Features.Has(cpufeature.SSE4_1) {
		vectorTableLookupGeneral(c, block, inst, tableInst, tableCount)
		return
	}
	vectorTableLookupFallback(c, block, inst, tableInst, tableCount)
}

// vectorTableLookupSingleZero is the single-table, zero-defaults SSSE3 fast
// path: biasing indices by 0x70 makes any index >= 16 saturate to >= 0x80,
// which pshufb defines as producing zero for that output byte — exactly
// the "out of range selects zero" shape needed when defaults is the zero
// vector (spec.md §4.E "Table lookup", first fast path).
func vectorTableLookupSingleZero(c *Context, block *ir.Block, inst *ir.Inst, table amd64.Register) {
	indices := c.useScratch(block, inst.Args[2].Value)
	bias := c.scratch()
	c.Asm.CompileLoadStaticConst(splatU8(0x70), bias)
	c.Asm.CompileRegisterToRegister(amd64.PADDUSB, bias, indices)
	result := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, table, result)
	c.Asm.CompileRegisterToRegister(amd64.PSHUFB, indices, result)
	c.Alloc.Release(bias)
	c.Alloc.Release(indices)
	c.define(inst.ID, result)
}

// vectorTableLookupGeneral is the SSE4.1 path for any table count (1-4) and
// any defaults vector: mask each index down to its table selector nibble,
// and for each table accumulate pshufb's result into defaults wherever
// pcmpeqb says that table owns the index (spec.md §4.E "Table lookup",
// "general" fast path). Indices belonging to no table (selector nibble >=
// tableCount) never match any comparison, so the accumulator keeps
// defaults for them automatically.
func vectorTableLookupGeneral(c *Context, block *ir.Block, inst *ir.Inst, tableInst *ir.Inst, tableCount int) {
	indices := c.use(inst.Args[2].Value)
	acc := c.useScratch(block, inst.Args[0].Value)

	selMask := c.scratch()
	c.Asm.CompileLoadStaticConst(splatU8(0xF0), selMask)
	maskedIdx := c.scratch()
	c.Asm.CompileRegisterToRegister(amd64.MOVDQA, indices, maskedIdx)
	c.Asm.CompileRegisterToRegister(amd64.PAND, selMask, maskedIdx)
	c.Alloc.Release(selMask)

	for i := 0; i < tableCount; i++ {
		table := c.use(tableInst.Args[i].Value)
		sel := c.scratch()
		c.Asm.CompileLoadStaticConst(splatU8(byte(i*16)), sel)
		c.Asm.CompileRegisterToRegister(amd64.PCMPEQB, maskedIdx, sel)
		lookup := c.scratch()
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, table, lookup)
		c.Asm.CompileRegisterToRegister(amd64.PSHUFB, indices, lookup)
		c.Asm.CompilePBlendVB(lookup, acc, sel)
		c.Alloc.Release(sel)
		c.Alloc.Release(lookup)
	}
	c.Alloc.Release(maskedIdx)
	c.define(inst.ID, acc)
}

func vectorTableLookupFallback(c *Context, block *ir.Block, inst *ir.Inst, tableInst *ir.Inst, tableCount int) {
	var fn uintptr
	switch tableCount {
	case 1:
		fn = c.Scalar.VectorTableLookup1
	case 2:
		fn = c.Scalar.VectorTableLookup2
	case 3:
		fn = c.Scalar.VectorTableLookup3
	default:
		fn = c.Scalar.VectorTableLookup4
	}
	defaults := c.use(inst.Args[0].Value)
	indices := c.useScratch(block, inst.Args[2].Value)
	tables := make([]amd64.Register, tableCount)
	for i := range tables {
		tables[i] = c.use(tableInst.Args[i].Value)
	}
	scratchBase := c.Alloc.ScratchGPR()
	c.Asm.CompileLoadEffectiveAddress(amd64.Mem{Base: amd64.RSP, Disp: -fallback.TableLookupLayout}, scratchBase)
	fallback.CallTableLookup(c.Asm, fn, scratchBase, defaults, indices, tables)
	c.Asm.CompileMemoryLoad(amd64.MOVDQA, amd64.Mem{Base: scratchBase, Disp: 0}, indices)
	c.Alloc.Release(scratchBase)
	c.define(inst.ID, indices)
}

// VectorTable emits nothing: it exists only so the IR can hold a refcount
// on its 1-4 table operands for VectorTableLookup to read back later
// (spec.md §4.E "Table lookup").
func VectorTable(c *Context, block *ir.Block, inst *ir.Inst) {}

func splatU8(v byte) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = v
	}
	return out
}
