// Package regalloc is the per-block register allocator (component C): it
// binds IR-value handles to physical XMM/GPR registers, distinguishes
// read-only reservations from writable scratch reservations, and enforces
// host-ABI call conventions across a scalar fallback call. Modeled on the
// teacher's valueLocationStack (tetratelabs-wazero's
// internal/engine/compiler/compiler_value_location.go), generalized from
// a full-function value stack to the simpler
// single-block-scope model this lowering layer needs.
package regalloc

import "github.com/dynarmic/vecx64/internal/asm/amd64"

// bindingKind is the state of one physical register slot.
type bindingKind int

const (
	free bindingKind = iota
	ownedUse             // reserved read-only on behalf of a live IR value
	ownedScratch         // reserved writable, not yet (or never) bound to a value
	ownedValue           // bound to an IR value's result via Define
)

type binding struct {
	kind     bindingKind
	writable bool
	uses     int // outstanding logical reservations sharing this physical register
}

// numXMM and numGPR bound the physical register files this allocator
// tracks. GPR slots are indexed by amd64.Register directly (0..15); XMM
// slots are indexed by amd64.Register - amd64.XMM0.
const (
	numXMM = 16
	numGPR = 16
)

// ValueID names one IR instruction's result, matching the teacher's pattern
// of keying value locations by an opaque small integer rather than a
// pointer (compiler_value_location.go's valueLocationStack indexes by
// position on an explicit stack; here IR values are free-standing so a flat
// ID map replaces the stack).
type ValueID uint32

// Allocator is one basic block's register-allocation state. It is not safe
// for concurrent use — the contract (spec-level, not enforced by the Go
// type system beyond what panics below catch) is strictly single-threaded
// per block.
type Allocator struct {
	xmm      [numXMM]binding
	gpr      [numGPR]binding
	bindings map[ValueID]amd64.Register // IR value -> owning XMM or GPR
	scopeLog []amd64.Register           // registers reserved since the last EndOfAllocScope, XMM file
	scopeGPR []amd64.Register
	abi      amd64.ABI
}

// New returns an allocator for one block, with r15 pre-reserved as the
// guest-state base pointer (spec.md §6) and never offered to callers.
func New(abi amd64.ABI) *Allocator {
	a := &Allocator{bindings: map[ValueID]amd64.Register{}, abi: abi}
	a.gpr[amd64.R15] = binding{kind: ownedValue, writable: false, uses: 1}
	return a
}

func (a *Allocator) firstFreeXMM() amd64.Register {
	for i := 0; i < numXMM; i++ {
		if a.xmm[i].kind == free {
			return amd64.XMM0 + amd64.Register(i)
		}
	}
	panic("regalloc: out of XMM registers")
}

func (a *Allocator) firstFreeGPR() amd64.Register {
	for i := 0; i < numGPR; i++ {
		if amd64.Register(i) == amd64.R15 {
			continue
		}
		if a.gpr[i].kind == free {
			return amd64.Register(i)
		}
	}
	panic("regalloc: out of general-purpose registers")
}

// Use reserves the physical register (XMM or GPR) currently bound to value
// read-only for the remainder of this emission scope. Spec.md invariant 2:
// a use register is never written between reservation and release.
func (a *Allocator) Use(value ValueID) amd64.Register {
	reg, ok := a.bindings[value]
	if !ok {
		panic("regalloc: use of undefined value")
	}
	if reg < amd64.XMM0 {
		a.gpr[reg].uses++
		a.scopeGPR = append(a.scopeGPR, reg)
		return reg
	}
	a.xmm[reg-amd64.XMM0].uses++
	if a.xmm[reg-amd64.XMM0].kind != ownedValue {
		a.xmm[reg-amd64.XMM0].kind = ownedUse
	}
	a.scopeLog = append(a.scopeLog, reg)
	return reg
}

// UseScratch returns a writable XMM holding value's contents. If this is
// value's last recorded use (useCount == 1 after this reservation) the
// original physical register is returned directly and marked writable;
// otherwise a fresh register is reserved and the emitter is expected to
// copy value into it before mutating (spec.md §4.C).
func (a *Allocator) UseScratch(value ValueID, lastUse bool, copyInto func(src, dst amd64.Register)) amd64.Register {
	reg, ok := a.bindings[value]
	if !ok {
		panic("regalloc: use_scratch of undefined value")
	}
	if lastUse {
		a.xmm[reg-amd64.XMM0].kind = ownedScratch
		a.xmm[reg-amd64.XMM0].writable = true
		a.scopeLog = append(a.scopeLog, reg)
		return reg
	}
	fresh := a.firstFreeXMM()
	a.xmm[fresh-amd64.XMM0] = binding{kind: ownedScratch, writable: true, uses: 1}
	a.scopeLog = append(a.scopeLog, fresh)
	if copyInto != nil {
		copyInto(reg, fresh)
	}
	return fresh
}

// Scratch reserves a fresh XMM with undefined contents.
func (a *Allocator) Scratch() amd64.Register {
	reg := a.firstFreeXMM()
	a.xmm[reg-amd64.XMM0] = binding{kind: ownedScratch, writable: true, uses: 1}
	a.scopeLog = append(a.scopeLog, reg)
	return reg
}

// ScratchGPR mirrors Scratch on the general-purpose file.
func (a *Allocator) ScratchGPR() amd64.Register {
	reg := a.firstFreeGPR()
	a.gpr[reg] = binding{kind: ownedScratch, writable: true, uses: 1}
	a.scopeGPR = append(a.scopeGPR, reg)
	return reg
}

// Define binds value to reg, converting a use_scratch/scratch reservation
// into a standing definition (spec.md: "define_value may be called with a
// register previously acquired as use_scratch or scratch"). It is an error
// to define the same value twice (invariant 1).
func (a *Allocator) Define(value ValueID, reg amd64.Register) {
	if _, ok := a.bindings[value]; ok {
		panic("regalloc: value defined twice")
	}
	a.bindings[value] = reg
	if reg < amd64.XMM0 {
		a.gpr[reg].kind = ownedValue
		return
	}
	a.xmm[reg-amd64.XMM0].kind = ownedValue
}

// Release drops a reservation early, before EndOfAllocScope. Used by
// emitters that know a scratch register is dead before the block's
// emission scope ends.
func (a *Allocator) Release(reg amd64.Register) {
	if reg >= amd64.XMM0 {
		a.xmm[reg-amd64.XMM0] = binding{}
		return
	}
	if reg == amd64.R15 {
		return // never releases the guest-state pointer
	}
	a.gpr[reg] = binding{}
}

// EndOfAllocScope drops every use/scratch reservation made since the last
// call (or since New), leaving only standing Define bindings live. This is
// the sole reclamation point named by the contract; IR values bound via
// Define survive across scopes until their own last consumer Releases them
// implicitly by not re-Using them.
func (a *Allocator) EndOfAllocScope() {
	for _, reg := range a.scopeLog {
		if a.xmm[reg-amd64.XMM0].kind != ownedValue {
			a.xmm[reg-amd64.XMM0] = binding{}
		}
	}
	for _, reg := range a.scopeGPR {
		if a.gpr[reg].kind != ownedValue {
			a.gpr[reg] = binding{}
		}
	}
	a.scopeLog = a.scopeLog[:0]
	a.scopeGPR = a.scopeGPR[:0]
}

// callerSavedXMM and callerSavedGPR enumerate the registers a host call
// clobbers under the allocator's configured ABI. Both ABIs treat xmm0-5 as
// volatile at minimum; System V additionally clobbers xmm6-15 (no
// callee-saved XMMs at all), while Win64 preserves xmm6-15.
func (a *Allocator) callerSavedXMM() []amd64.Register {
	if a.abi == amd64.Win64 {
		return []amd64.Register{amd64.XMM0, amd64.XMM1, amd64.XMM2, amd64.XMM3, amd64.XMM4, amd64.XMM5}
	}
	regs := make([]amd64.Register, 0, 16)
	for i := 0; i < numXMM; i++ {
		regs = append(regs, amd64.XMM0+amd64.Register(i))
	}
	return regs
}

func (a *Allocator) callerSavedGPR() []amd64.Register {
	if a.abi == amd64.Win64 {
		return []amd64.Register{amd64.RAX, amd64.RCX, amd64.RDX, amd64.R8, amd64.R9, amd64.R10, amd64.R11}
	}
	return []amd64.Register{amd64.RAX, amd64.RCX, amd64.RDX, amd64.RSI, amd64.RDI, amd64.R8, amd64.R9, amd64.R10, amd64.R11}
}

// HostCall reserves (and reports, for the caller to spill) every
// caller-saved register currently holding a live definition, then marks
// the whole caller-saved set clobbered for the duration of one host call.
// Matches spec.md §4.C: "host_call(nullptr) implies the allocator spills
// anything live across the call and treats all caller-saved host registers
// as clobbered afterwards."
func (a *Allocator) HostCall() (spillXMM, spillGPR []amd64.Register) {
	for _, reg := range a.callerSavedXMM() {
		if a.xmm[reg-amd64.XMM0].kind == ownedValue {
			spillXMM = append(spillXMM, reg)
		}
		a.xmm[reg-amd64.XMM0] = binding{}
	}
	for _, reg := range a.callerSavedGPR() {
		if a.gpr[reg].kind == ownedValue {
			spillGPR = append(spillGPR, reg)
		}
		a.gpr[reg] = binding{}
	}
	return spillXMM, spillGPR
}

// Lookup returns the physical register currently bound to value, without
// reserving a new use (for diagnostics/tests).
func (a *Allocator) Lookup(value ValueID) (amd64.Register, bool) {
	r, ok := a.bindings[value]
	return r, ok
}
