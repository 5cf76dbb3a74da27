// Package fallback is the scalar fallback runtime (component D): it spills
// one or two 128-bit XMM operands to a 16-aligned stack scratch area,
// performs a host ABI call into a scalar callback operating on fixed-size
// lane arrays, reloads the result, and optionally ORs a returned
// saturation byte into fpsr_qc. Grounded on the host-call shadow-space and
// parameter-register conventions demonstrated in the Win64 ABI emission of
// the x64 text-assembly codegen example (other_examples
// cff05bc9_..._regalloc.go.go's emitCall), adapted from that example's
// caller-marshals-to-registers model to this layer's spill-to-memory model
// since the callback signature here is fixed-arity pointers, not a
// variadic call site.
package fallback

import "github.com/dynarmic/vecx64/internal/asm/amd64"

// Lane is re-exported at arity granularity only; fallback does not interpret
// lane contents, it only moves 16-byte blocks, so it takes no dependency on
// package ir.

// OneArgLayout is the stack-scratch layout for a one-argument fallback:
// two consecutive 16-byte slots, result first then arg1, both 16-aligned
// (spec.md §4.D).
const OneArgLayout = 32

// TwoArgLayout is the stack-scratch layout for a two-argument fallback:
// result, arg1, arg2.
const TwoArgLayout = 48

// CallOneArg spills arg into the scratch buffer, calls fn(resultPtr,
// argPtr), and leaves the result in memory at scratchBase+0 for the caller
// to reload. fn must have the C signature void fn(void *result, const void
// *arg). scratchBase is a GPR the caller has reserved to hold the scratch
// base address (typically rsp-relative via a prior lea, but
// passed in already-materialized form so this package stays agnostic of
// how the caller manages its stack frame).
func CallOneArg(a *amd64.Assembler, fn uintptr, scratchBase amd64.Register, arg amd64.Register) {
	storeXMM(a, arg, scratchBase, 16)
	loadEffectiveResultPtr(a, scratchBase, 0)
	loadEffectiveArgPtr(a, scratchBase, 16)
	a.CallFunction(fn)
}

// CallOneArgSaturating is CallOneArg, additionally ORing al (the
// callback's scalar return value, a boolean saturation indicator) into the
// fpsr_qc byte at [r15+fpsrQCOffset], never clearing existing bits
// (spec.md invariant 4).
func CallOneArgSaturating(a *amd64.Assembler, fn uintptr, scratchBase amd64.Register, arg amd64.Register, fpsrQCOffset int32) {
	CallOneArg(a, fn, scratchBase, arg)
	orALIntoFPSRQC(a, fpsrQCOffset)
}

// CallTwoArg spills arg1 and arg2, calls fn(resultPtr, arg1Ptr, arg2Ptr),
// and leaves the result in memory at scratchBase+0 for the caller to
// reload with whatever XMM move fits its result width.
func CallTwoArg(a *amd64.Assembler, fn uintptr, scratchBase amd64.Register, arg1, arg2 amd64.Register) {
	storeXMM(a, arg1, scratchBase, 16)
	storeXMM(a, arg2, scratchBase, 32)
	loadEffectiveResultPtr(a, scratchBase, 0)
	loadEffectiveArgPtr(a, scratchBase, 16)
	loadSecondArgPtr(a, scratchBase, 32)
	a.CallFunction(fn)
}

// CallTwoArgSaturating is CallTwoArg with the saturation-byte OR-in.
func CallTwoArgSaturating(a *amd64.Assembler, fn uintptr, scratchBase amd64.Register, arg1, arg2 amd64.Register, fpsrQCOffset int32) {
	CallTwoArg(a, fn, scratchBase, arg1, arg2)
	orALIntoFPSRQC(a, fpsrQCOffset)
}

// TableLookupLayout is the stack-scratch layout for a table-lookup
// fallback: result, defaults, indices, then up to 4 sixteen-byte table
// vectors (16+16+16+64 bytes), sized for the largest lookup this package's
// fast path doesn't cover (spec.md §4.E "Table lookup").
const TableLookupLayout = 112

// CallTableLookup spills defaults, indices and the given table registers
// (1-4 of them) into the scratch buffer and calls
// fn(resultPtr, defaultsPtr, indicesPtr, tablesPtr), where tablesPtr points
// at the contiguous run of table vectors. Packing the table vectors behind
// a single pointer, rather than passing one pointer per table, keeps the
// call within four integer parameter registers on both ABIs this package
// targets instead of needing up to seven.
func CallTableLookup(a *amd64.Assembler, fn uintptr, scratchBase amd64.Register, defaults, indices amd64.Register, tables []amd64.Register) {
	storeXMM(a, defaults, scratchBase, 16)
	storeXMM(a, indices, scratchBase, 32)
	for i, table := range tables {
		storeXMM(a, table, scratchBase, 48+int32(i)*16)
	}
	loadEffectiveResultPtr(a, scratchBase, 0)
	loadEffectiveArgPtr(a, scratchBase, 16)
	loadSecondArgPtr(a, scratchBase, 32)
	a.CompileLoadEffectiveAddress(amd64.Mem{Base: scratchBase, Disp: 48}, a.ParamReg(3))
	a.CallFunction(fn)
}

func storeXMM(a *amd64.Assembler, src amd64.Register, base amd64.Register, disp int32) {
	a.CompileMemoryStore(amd64.MOVDQA, src, amd64.Mem{Base: base, Disp: disp})
}

func loadEffectiveResultPtr(a *amd64.Assembler, base amd64.Register, disp int32) {
	a.CompileLoadEffectiveAddress(amd64.Mem{Base: base, Disp: disp}, a.ParamReg(0))
}

func loadEffectiveArgPtr(a *amd64.Assembler, base amd64.Register, disp int32) {
	a.CompileLoadEffectiveAddress(amd64.Mem{Base: base, Disp: disp}, a.ParamReg(1))
}

func loadSecondArgPtr(a *amd64.Assembler, base amd64.Register, disp int32) {
	a.CompileLoadEffectiveAddress(amd64.Mem{Base: base, Disp: disp}, a.ParamReg(2))
}

func orALIntoFPSRQC(a *amd64.Assembler, fpsrQCOffset int32) {
	a.CompileOrALToMemory8(amd64.Mem{Base: amd64.R15, Disp: fpsrQCOffset})
}
