// Package emit is the vector opcode emitter layer (component E): one
// lowering procedure per IR vector opcode, each consulting the CPU feature
// oracle to pick a strategy, the register allocator to reserve operands,
// and the assembler to produce bytes, falling back to the scalar runtime
// when no tractable SIMD sequence exists. Organized as one file per opcode
// family, mirroring the grouping of compiler methods in the teacher's
// compiler.compiler interface (tetratelabs-wazero's
// internal/engine/compiler/compiler.go), which groups ~90 compileV128*
// methods by the same families (bitwise, arithmetic, compare, shift,
// shuffle, ...) this package's files follow.
package emit

import (
	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
	"github.com/dynarmic/vecx64/internal/regalloc"
)

// Context is the per-block emission context bundling the allocator, the
// assembler, the active CPU feature set, and the JIT state layout needed
// to reach fpsr_qc (spec.md §3 "Emission context").
type Context struct {
	Alloc        *regalloc.Allocator
	Asm          *amd64.Assembler
	Features     cpufeature.Set
	FPSRQCOffset int32

	// Scalar holds the host function addresses the engine has registered
	// for each opcode that may need to fall through to component D. Left
	// at its zero value a family simply has no fallback available; nothing
	// checks for a zero entry, so a fallback path reached with one emits a
	// call to address zero.
	Scalar ScalarCallbacks
}

// ScalarCallbacks is the table of host function pointers the scalar
// fallback runtime (component D) calls into. The engine embedding this
// package is responsible for populating it with the addresses of its own
// compiled scalar implementations of each opcode's lane semantics — this
// package only knows how to marshal operands to and from them.
//
// Fields that vary by lane width are arrays indexed by ir.Lane (only the
// E8..E64 slots are ever populated; E128 is unused). A zero entry means no
// fallback is registered; it is not checked at emit time and is emitted as
// a call to address zero.
type ScalarCallbacks struct {
	GreaterS64 uintptr

	LogicalVShiftS, LogicalVShiftU [5]uintptr

	HalvingSubS, HalvingSubU       [5]uintptr
	RoundingHalvingAddS            [5]uintptr

	MinS64, MaxS64, MinU64, MaxU64 uintptr
	AbsoluteDifferenceU64          uintptr

	SignedSaturatedDoublingMultiplyReturnHigh [5]uintptr

	SignedSaturatedNarrowToSigned   [5]uintptr
	SignedSaturatedNarrowToUnsigned [5]uintptr
	UnsignedSaturatedNarrow         [5]uintptr

	PairedAdd                [5]uintptr
	PairedAddLower           [5]uintptr
	PairedAddSignedWiden     [5]uintptr
	PairedAddUnsignedWiden   [5]uintptr
	PairedMinS, PairedMinU   [5]uintptr
	PairedMaxS, PairedMaxU   [5]uintptr

	DeinterleaveEven, DeinterleaveOdd [5]uintptr
	Broadcast, BroadcastLower         [5]uintptr

	PolynomialMultiply     uintptr
	PolynomialMultiplyLong [5]uintptr

	PopulationCount uintptr
	ReverseBits     uintptr

	RoundingShiftLeftS, RoundingShiftLeftU [5]uintptr

	// VectorTableLookupN is the callback for a lookup with exactly N table
	// registers (1-4), used below SSE4.1 whenever the native SSSE3
	// single-table/zero-defaults fast path doesn't apply.
	VectorTableLookup1, VectorTableLookup2, VectorTableLookup3, VectorTableLookup4 uintptr
}

// use reserves inst's bound value read-only.
func (c *Context) use(v ir.ValueID) amd64.Register {
	return c.Alloc.Use(regalloc.ValueID(v))
}

// useScratch reserves a writable copy of the value block.Get(v) produced,
// returning the original physical register directly when v's single
// recorded use-count means this is its last consumer (spec.md §4.C:
// "implementation is free to return the original physical register if
// this is the last use, else a copy").
func (c *Context) useScratch(block *ir.Block, v ir.ValueID) amd64.Register {
	lastUse := block.Get(v).UseCount() <= 1
	return c.Alloc.UseScratch(regalloc.ValueID(v), lastUse, func(src, dst amd64.Register) {
		c.Asm.CompileRegisterToRegister(amd64.MOVDQA, src, dst)
	})
}

func (c *Context) scratch() amd64.Register { return c.Alloc.Scratch() }

func (c *Context) define(id ir.ValueID, reg amd64.Register) {
	c.Alloc.Define(regalloc.ValueID(id), reg)
}

// allOnes materializes an all-ones XMM into dst via the teacher-style
// idiom `pcmpeqw reg,reg` (spec.md §4.E "Not"): comparing any register to
// itself for equality always sets every lane, needing no constant-pool
// round trip.
func (c *Context) allOnes(dst amd64.Register) {
	c.Asm.CompileRegisterToRegister(amd64.PCMPEQW, dst, dst)
}

// zero materializes a zero XMM via `pxor reg,reg`.
func (c *Context) zero(dst amd64.Register) {
	c.Asm.CompileRegisterToRegister(amd64.PXOR, dst, dst)
}

// imm8 extracts the immediate argument at position idx of inst.
func imm8(inst *ir.Inst, idx int) amd64.Mode {
	return amd64.Mode(inst.Args[idx].Imm)
}
