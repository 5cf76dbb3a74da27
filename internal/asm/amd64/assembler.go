// Package amd64 is the machine-code assembler (component B): it turns typed
// mnemonic+operand triples into x86-64 bytes, manages a deduplicated
// constant pool, and emits the host-call sequence the scalar fallback
// runtime needs. Modeled on the teacher's internal/asm/amd64 package, in
// particular impl.go's REX/ModRM construction and impl_staticconst.go's
// constant-pool patching, generalized from wasm compilation to vector-IR
// lowering.
package amd64

import (
	"encoding/binary"
)

// ABI selects which native calling convention CallFunction target the host
// call sequence at (spec.md §6).
type ABI int

const (
	// SystemV is the Linux/macOS/BSD AMD64 ABI: integer args in
	// rdi,rsi,rdx,rcx,r8,r9, no shadow space.
	SystemV ABI = iota
	// Win64 is the Windows x64 ABI: integer args in rcx,rdx,r8,r9, with a
	// 32-byte caller-allocated shadow space beneath the return address.
	Win64
)

// Assembler accumulates machine code for one compiled block into a single
// buffer, alongside the constant pool MConst literals are interned into.
// Unlike the teacher's Assembler, which buffers whole "Node" objects for a
// later resolve pass (internal/asm/amd64/assembler.go), this package writes
// bytes immediately and defers only constant-pool displacements, since
// nothing else in this domain needs backward jump-target patching.
type Assembler struct {
	buf   []byte
	pool  *constPool
	abi   ABI
	// dispSites holds, for every RIP-relative constant-pool reference
	// emitted so far, the offset of its 4-byte displacement field. Patched
	// once in Finalize.
	dispSites []int32
}

// NewAssembler returns an Assembler targeting the given host ABI.
func NewAssembler(abi ABI) *Assembler {
	return &Assembler{pool: newConstPool(), abi: abi}
}

// Len returns the number of code bytes emitted so far (not counting the
// not-yet-appended constant pool).
func (a *Assembler) Len() int { return len(a.buf) }

func (a *Assembler) emit(b ...byte) { a.buf = append(a.buf, b...) }

func (a *Assembler) emitImm32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	a.buf = append(a.buf, tmp[:]...)
}

// rex builds a REX prefix byte from its four component bits. Matches the
// teacher's rexPrefix helpers in internal/asm/amd64/impl.go, collapsed to a
// single function since this package never needs to omit REX.W/R/X/B
// selectively at the call site — callers just pass false for unused bits.
func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 1 << 3
	}
	if r {
		v |= 1 << 2
	}
	if x {
		v |= 1 << 1
	}
	if b {
		v |= 1
	}
	return v
}

// needsRex reports whether a REX prefix must be emitted at all: either an
// extension bit is set, or W is requested. Pure legacy 8-bit operand access
// to registers spl/bpl/sil/dil isn't exercised by this package so isn't
// special-cased here, unlike the teacher's impl.go which must handle it for
// arbitrary wasm-sourced byte ops.
func needsRex(w, r, x, b bool) bool { return w || r || x || b }

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&0b111)<<3 | (rm & 0b111)
}

// emitLegacyRR encodes a register-register legacy (possibly REX-prefixed)
// instruction per d, with regField/rmField already resolved to which
// operand occupies which ModRM slot.
func (a *Assembler) emitLegacyRR(d legacyDesc, regField, rmField Register) {
	if d.prefix != 0 {
		a.emit(d.prefix)
	}
	regBits, regExt := register3bits(regField)
	rmBits, rmExt := register3bits(rmField)
	if needsRex(d.rexW, regExt, false, rmExt) {
		a.emit(rex(d.rexW, regExt, false, rmExt))
	}
	if d.m != legacyNoEscape {
		a.emit(d.m.bytes()...)
	}
	a.emit(d.opcode)
	a.emit(modrm(0b11, regBits, rmBits))
}

// CompileRegisterToRegister emits `to = op(to, from)` (or, for the direction
// Intel's SDM spells the operands in reverse, `to = op(from)` with from
// read-only) for any two-operand legacy SSE/SSE2/SSSE3/SSE4.x mnemonic in
// legacyTable. Mirrors the teacher's CompileRegisterToRegister signature
// (internal/asm/amd64/assembler.go) applied to XMM operands.
func (a *Assembler) CompileRegisterToRegister(mn Mnemonic, from, to Register) {
	d, ok := legacyTable[mn]
	if !ok {
		panic("amd64: not a register-to-register mnemonic")
	}
	if d.imm8 {
		panic("amd64: mnemonic requires an immediate, use CompileRegisterToRegisterImm8")
	}
	if d.dir == rmIsDst {
		a.emitLegacyRR(d, from, to)
		return
	}
	a.emitLegacyRR(d, to, from)
}

// CompileRegisterToRegisterImm8 is CompileRegisterToRegister for mnemonics
// that carry a trailing imm8 (PSHUFD, PEXTR*, PINSR*, PBLENDW, SHUFPS).
func (a *Assembler) CompileRegisterToRegisterImm8(mn Mnemonic, from, to Register, imm8 Mode) {
	d, ok := legacyTable[mn]
	if !ok || !d.imm8 {
		panic("amd64: not an imm8 register-to-register mnemonic")
	}
	if d.dir == rmIsDst {
		a.emitLegacyRR(d, from, to)
	} else {
		a.emitLegacyRR(d, to, from)
	}
	a.emit(imm8)
}

// CompileShiftImm8 emits the immediate-shift group form (PSLLW/D/Q,
// PSRLW/D/Q, PSRAW/D, PSLLDQ/PSRLDQ) operating in place on reg.
func (a *Assembler) CompileShiftImm8(mn Mnemonic, reg Register, imm8 Mode) {
	d, ok := immShiftTable[mn]
	if !ok {
		panic("amd64: not an immediate-shift mnemonic")
	}
	a.emit(0x66)
	rmBits, rmExt := register3bits(reg)
	if rmExt {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x0F, d.opcode)
	a.emit(modrm(0b11, d.digit, rmBits))
	a.emit(imm8)
}

// CompileShiftByCount emits the variable-shift form (PSLLW/D/Q, PSRLW/D/Q,
// PSRAW/D) where the shift count lives in the low 64 bits of countReg.
func (a *Assembler) CompileShiftByCount(mn Mnemonic, countReg, reg Register) {
	a.CompileRegisterToRegister(mn, countReg, reg)
}

// MovGPRToXMM emits `dst[127:32 or 63] = 0; dst[31:0 or 63:0] = src` (MOVD
// or, with wide=true, MOVQ) loading a GPR's value into an XMM register's low
// lane and zeroing the rest, per the SDM's zero-extend-on-load behavior for
// this form.
func (a *Assembler) MovGPRToXMM(src, dst Register, wide bool) {
	a.emit(0x66)
	dstBits, dstExt := register3bits(dst)
	srcBits, srcExt := register3bits(src)
	a.emit(rex(wide, dstExt, false, srcExt))
	a.emit(0x0F, 0x6E)
	a.emit(modrm(0b11, dstBits, srcBits))
}

// MovXMMToGPR emits the inverse of MovGPRToXMM: the low lane of src is
// stored into dst.
func (a *Assembler) MovXMMToGPR(src, dst Register, wide bool) {
	a.emit(0x66)
	srcBits, srcExt := register3bits(src)
	dstBits, dstExt := register3bits(dst)
	a.emit(rex(wide, srcExt, false, dstExt))
	a.emit(0x0F, 0x7E)
	a.emit(modrm(0b11, srcBits, dstBits))
}

// CompileVexRRR emits a 3-operand (NDS form) VEX-encoded instruction: dst =
// op(src1, src2), 128-bit vector length, with src1 carried in VEX.vvvv.
// Always uses the 3-byte VEX prefix (0xC4) even where a 2-byte form would
// suffice, which the SDM permits unconditionally and which avoids a second
// code path for the map0F38/map0F3A opcodes this package actually uses.
func (a *Assembler) CompileVexRRR(mn Mnemonic, src1, src2, dst Register) {
	d, ok := vexTable[mn]
	if !ok {
		panic("amd64: not a VEX mnemonic")
	}
	a.emitVex(d, src1, src2, dst)
	a.emit(d.opcode)
	dstBits, dstExt := register3bits(dst)
	_ = dstExt // folded into the VEX R bit already
	src2Bits, _ := register3bits(src2)
	a.emit(modrm(0b11, dstBits, src2Bits))
}

// CompileVexRR emits a 2-operand VEX instruction (broadcasts, VPABSQ):
// dst = op(src), VEX.vvvv unused (set to 1111b).
func (a *Assembler) CompileVexRR(mn Mnemonic, src, dst Register) {
	d, ok := vexTable[mn]
	if !ok {
		panic("amd64: not a VEX mnemonic")
	}
	a.emitVex(d, NilRegister, src, dst)
	a.emit(d.opcode)
	dstBits, _ := register3bits(dst)
	srcBits, _ := register3bits(src)
	a.emit(modrm(0b11, dstBits, srcBits))
}

// CompileVexShiftImm8 emits the VEX group-shift form used by VPSRAQ:
// VEX.NDD.128.66.0F.W1 72 /4 ib, where the ModRM.reg field carries the fixed
// group digit (4, per the SDM's Table 2-19 shift group — distinct from
// VPSRLQ's /2 in the same opcode group), the source operand is in rm, and
// the destination is carried in VEX.vvvv (the "NDD" — non-destructive
// destination — shape, distinct from the NDS 3-operand arithmetic forms
// CompileVexRRR handles).
func (a *Assembler) CompileVexShiftImm8(src, dst Register, imm8 Mode) {
	d := vexDesc{pp: 1, m: map0F, opcode: 0x72, w: 1}
	a.emitVex(d, dst, src, NilRegister)
	a.emit(d.opcode)
	srcBits, _ := register3bits(src)
	a.emit(modrm(0b11, 4, srcBits))
	a.emit(imm8)
}

// emitVex writes the 3-byte VEX prefix for dst <- op(vvvvReg, rmReg).
// vvvvReg may be NilRegister for 2-operand forms, encoding the
// ones'-complement "1111" meaning unused.
func (a *Assembler) emitVex(d vexDesc, vvvvReg, rmReg, regField Register) {
	var regExt bool
	if regField != NilRegister {
		regExt = isExtended(regField)
	}
	rmExt := isExtended(rmReg)
	var mm byte
	switch d.m {
	case map0F38:
		mm = 0b10
	case map0F3A:
		mm = 0b11
	default:
		mm = 0b01
	}
	byte1 := (bit(!regExt) << 7) | (byte(1) << 6) | (bit(!rmExt) << 5) | mm
	var vvvv byte = 0b1111
	if vvvvReg != NilRegister {
		b, _ := register3bits(vvvvReg)
		ext := isExtended(vvvvReg)
		n := b
		if ext {
			n |= 0b1000
		}
		vvvv = n
	}
	byte2 := (d.w << 7) | ((^vvvv & 0b1111) << 3) | (0 << 2) | d.pp
	a.emit(0xC4, byte1, byte2)
}

func bit(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// CompileLoadStaticConst interns a 16-byte literal into the constant pool
// and emits a RIP-relative MOVDQA loading it into dst, deferring the actual
// displacement until Finalize lays the pool out. Mirrors the teacher's
// CompileLoadStaticConstToRegister (internal/asm/amd64/impl_staticconst.go).
func (a *Assembler) CompileLoadStaticConst(literal [16]byte, dst Register) {
	a.emit(0x66)
	dstBits, dstExt := register3bits(dst)
	if dstExt {
		a.emit(rex(false, true, false, false))
	}
	a.emit(0x0F, 0x6F)
	a.emit(modrm(0b00, dstBits, 0b101)) // rm=101, mod=00 => RIP-relative
	site := int32(len(a.buf))
	a.emitImm32(0) // placeholder, patched in Finalize
	a.pool.intern(literal, site)
	a.dispSites = append(a.dispSites, site)
}

// CallFunction emits a call to a fixed native function pointer, honoring
// the Assembler's configured ABI's shadow-space requirement (spec.md §6:
// "the emitted call sequence must honor the host ABI's shadow-space and
// register-parameter conventions"). target is loaded into a scratch GPR
// (rax, never a parameter register) and called indirectly; callers are
// responsible for having already placed arguments per ABI convention and
// for restoring rsp afterward if they allocated extra stack space.
func (a *Assembler) CallFunction(target uintptr) {
	if a.abi == Win64 {
		a.subRSP(32)
	}
	a.movImm64(RAX, uint64(target))
	a.callReg(RAX)
	if a.abi == Win64 {
		a.addRSP(32)
	}
}

// CompileMoveImmediate64 loads a 64-bit immediate into a GPR (REX.W + B8+r
// id). Exported for callers that need a GPR constant outside of a host
// call target, e.g. a saturation bit-test mask.
func (a *Assembler) CompileMoveImmediate64(dst Register, imm uint64) {
	a.movImm64(dst, imm)
}

func (a *Assembler) movImm64(dst Register, imm uint64) {
	dstBits, dstExt := register3bits(dst)
	a.emit(rex(true, false, false, dstExt))
	a.emit(0xB8 | dstBits)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], imm)
	a.buf = append(a.buf, tmp[:]...)
}

func (a *Assembler) callReg(reg Register) {
	bits, ext := register3bits(reg)
	if ext {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xFF)
	a.emit(modrm(0b11, 2, bits))
}

func (a *Assembler) subRSP(n int32) {
	a.emit(rex(true, false, false, false))
	a.emit(0x81)
	a.emit(modrm(0b11, 5, byte(RSP)))
	a.emitImm32(n)
}

func (a *Assembler) addRSP(n int32) {
	a.emit(rex(true, false, false, false))
	a.emit(0x81)
	a.emit(modrm(0b11, 0, byte(RSP)))
	a.emitImm32(n)
}

// Finalize lays out the constant pool after the emitted code, patches every
// RIP-relative displacement recorded by CompileLoadStaticConst, and returns
// the complete buffer. The Assembler must not be used again afterward.
func (a *Assembler) Finalize() []byte {
	pad, poolBytes := a.pool.layout(len(a.buf))
	for i := 0; i < pad; i++ {
		a.buf = append(a.buf, 0x00)
	}
	a.buf = append(a.buf, poolBytes...)
	a.pool.patchDisplacements(a.buf, func(site int32) int32 { return site + 4 })
	return a.buf
}

// CompileShiftGPRImm8 emits the C1 /digit ib group-shift form on a 32-bit
// GPR: SHLL uses digit 4, SHRL digit 5, SARL digit 7.
func (a *Assembler) CompileShiftGPRImm8(mn Mnemonic, reg Register, imm8 Mode) {
	var digit byte
	switch mn {
	case SHLL:
		digit = 4
	case SHRL:
		digit = 5
	case SARL:
		digit = 7
	default:
		panic("amd64: not a GPR shift mnemonic")
	}
	bits, ext := register3bits(reg)
	if ext {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xC1)
	a.emit(modrm(0b11, digit, bits))
	a.emit(imm8)
}

// CompilePBlendVB emits `dst = mask ? src : dst` using the implicit-xmm0
// PBLENDVB form (SSE4.1): per the SDM the selector mask is always read
// from xmm0, so when mask is in another register this first copies it into
// xmm0 with MOVDQA, overwriting whatever xmm0 held without telling the
// register allocator.
func (a *Assembler) CompilePBlendVB(src, dst, mask Register) {
	if mask != XMM0 {
		a.CompileRegisterToRegister(MOVDQA, mask, XMM0)
	}
	d := legacyTable[PBLENDVB]
	a.emitLegacyRR(d, dst, src)
}

// ConstPoolSize reports the number of distinct 16-byte literals interned so
// far (spec.md §8 property 4: two equal 128-bit immediates used in the same
// block must share one pool slot).
func (a *Assembler) ConstPoolSize() int { return a.pool.Deduplicated() }

// ParamReg returns the n'th integer parameter register under the
// Assembler's configured ABI (spec.md §6: "callers are responsible for
// having reserved shadow space and parameter registers per the platform
// calling convention in use"). n is 0-based.
func (a *Assembler) ParamReg(n int) Register {
	if a.abi == Win64 {
		regs := [4]Register{RCX, RDX, R8, R9}
		return regs[n]
	}
	regs := [6]Register{RDI, RSI, RDX, RCX, R8, R9}
	return regs[n]
}

// CompileMemoryStore emits `mem = src` for a 128-bit store mnemonic
// (MOVDQA/MOVDQU) from an XMM register to a [base+disp] memory operand.
func (a *Assembler) CompileMemoryStore(mn Mnemonic, src Register, mem Mem) {
	d, ok := legacyTable[mn]
	if !ok {
		panic("amd64: not a store-capable mnemonic")
	}
	a.emitLegacyRM(d, src, mem, true)
}

// CompileMemoryLoad emits `dst = mem` for a 128-bit load mnemonic.
func (a *Assembler) CompileMemoryLoad(mn Mnemonic, mem Mem, dst Register) {
	d, ok := legacyTable[mn]
	if !ok {
		panic("amd64: not a load-capable mnemonic")
	}
	a.emitLegacyRM(d, dst, mem, false)
}

// emitLegacyRM encodes reg <-> [base+disp], regField always in ModRM.reg;
// storeDir true means reg is the source being stored to memory (mem is
// rm), false means reg is the destination being loaded from memory.
func (a *Assembler) emitLegacyRM(d legacyDesc, regField Register, mem Mem, storeDir bool) {
	if d.prefix != 0 {
		a.emit(d.prefix)
	}
	regBits, regExt := register3bits(regField)
	baseBits, baseExt := register3bits(mem.Base)
	if needsRex(d.rexW, regExt, false, baseExt) {
		a.emit(rex(d.rexW, regExt, false, baseExt))
	}
	a.emit(d.m.bytes()...)
	opcode := d.opcode
	if storeDir && d.storeOpcode != 0 {
		opcode = d.storeOpcode
	}
	a.emit(opcode)
	a.emitModRMMem(regBits, baseBits, mem)
}

// emitModRMMem writes the ModRM (and, if needed, SIB and displacement)
// bytes for a [base+disp32] memory operand with the given reg field.
func (a *Assembler) emitModRMMem(regBits, baseBits byte, mem Mem) {
	baseLow := baseBits & 0b111
	if mem.Disp == 0 && baseLow != byte(RBP) {
		a.emit(modrm(0b00, regBits, baseBits))
	} else {
		a.emit(modrm(0b10, regBits, baseBits))
	}
	if baseLow == byte(RSP) {
		a.emit(0x24) // SIB byte: no index, base=rsp
	}
	if mem.Disp != 0 || baseLow == byte(RBP) {
		a.emitImm32(mem.Disp)
	}
}

// CompileLoadEffectiveAddress emits `dst = &mem` (LEA).
func (a *Assembler) CompileLoadEffectiveAddress(mem Mem, dst Register) {
	dstBits, dstExt := register3bits(dst)
	baseBits, baseExt := register3bits(mem.Base)
	a.emit(rex(true, dstExt, false, baseExt))
	a.emit(0x8D)
	a.emitModRMMem(dstBits, baseBits, mem)
}

// CompileOrALToMemory8 emits `[mem] |= al`, the saturation-flag update
// primitive named by spec.md invariant 4 (fpsr_qc is only ever OR-ed into,
// never cleared, by emitted code).
func (a *Assembler) CompileOrALToMemory8(mem Mem) {
	baseBits, baseExt := register3bits(mem.Base)
	if baseExt {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x08) // OR r/m8, r8
	a.emitModRMMem(0 /* al */, baseBits, mem)
}
