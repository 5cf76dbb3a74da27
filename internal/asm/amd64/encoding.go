package amd64

// opcodeMap names which escape bytes follow the legacy prefix, per the
// Intel SDM's three opcode maps used by the instructions this package
// emits.
type opcodeMap uint8

const (
	map0F opcodeMap = iota
	map0F38
	map0F3A
)

func (m opcodeMap) bytes() []byte {
	switch m {
	case map0F38:
		return []byte{0x0F, 0x38}
	case map0F3A:
		return []byte{0x0F, 0x3A}
	default:
		return []byte{0x0F}
	}
}

// direction says which ModRM field carries the instruction's destination
// operand. Most SSE two-operand forms put the destination in the reg field
// (regIsDst); a handful of extract-style instructions the SDM defines with
// the register operand in the reg field acting as the *source* instead
// (rmIsDst) — PEXTRB/D/Q. PEXTRW's 0F C5 form, PMOVMSKB and MOVMSKPS
// put the destination GPR in the reg field and use regIsDst.
type direction uint8

const (
	regIsDst direction = iota
	rmIsDst
)

// legacyDesc describes one legacy (non-VEX, non-EVEX) SSE-family mnemonic:
// its mandatory prefix byte (0 for none), opcode map, opcode byte, operand
// direction, whether it carries a trailing imm8, and whether REX.W must be
// set. Modeled on the teacher's per-instruction case arms in
// internal/asm/amd64/impl.go, collapsed into one data table since this
// package's mnemonic set is fixed and small enough to tabulate directly
// rather than switch on.
type legacyDesc struct {
	prefix byte
	m      opcodeMap
	opcode byte
	dir    direction
	imm8   bool
	rexW   bool
	// digit, when extDigit is true, means this is a group opcode where the
	// ModRM.reg field is a fixed extension digit rather than a register
	// (the immediate-shift group: /2 /4 /6 /7).
	digit    byte
	extDigit bool
	// storeOpcode, when nonzero, is the opcode byte to use instead of
	// opcode when this mnemonic is used as a memory store (reg=source
	// being written out) rather than a memory load (reg=destination being
	// read into) — MOVDQA/MOVDQU define distinct opcodes for each
	// direction per the SDM, unlike the register-register form where
	// either register can sit in either ModRM field.
	storeOpcode byte
}

var legacyTable = map[Mnemonic]legacyDesc{
	MOVAPS: {prefix: 0x00, m: map0F, opcode: 0x28, dir: regIsDst, storeOpcode: 0x29},
	MOVDQA: {prefix: 0x66, m: map0F, opcode: 0x6F, dir: regIsDst, storeOpcode: 0x7F},
	MOVDQU: {prefix: 0xF3, m: map0F, opcode: 0x6F, dir: regIsDst, storeOpcode: 0x7F},
	MOVSD:  {prefix: 0xF2, m: map0F, opcode: 0x10, dir: regIsDst},
	MOVSS:  {prefix: 0xF3, m: map0F, opcode: 0x10, dir: regIsDst},
	// MOVQ xmm1, xmm2 (F3 0F 7E): moves the low 64 bits and always zeros
	// bits 64-127 of the destination, which is exactly ZeroUpper's
	// contract when src==dst.
	MOVQ: {prefix: 0xF3, m: map0F, opcode: 0x7E, dir: regIsDst},

	PAND:  {prefix: 0x66, m: map0F, opcode: 0xDB, dir: regIsDst},
	PANDN: {prefix: 0x66, m: map0F, opcode: 0xDF, dir: regIsDst},
	POR:   {prefix: 0x66, m: map0F, opcode: 0xEB, dir: regIsDst},
	PXOR:  {prefix: 0x66, m: map0F, opcode: 0xEF, dir: regIsDst},

	PADDB: {prefix: 0x66, m: map0F, opcode: 0xFC, dir: regIsDst},
	PADDW: {prefix: 0x66, m: map0F, opcode: 0xFD, dir: regIsDst},
	PADDD: {prefix: 0x66, m: map0F, opcode: 0xFE, dir: regIsDst},
	PADDQ: {prefix: 0x66, m: map0F, opcode: 0xD4, dir: regIsDst},
	PSUBB: {prefix: 0x66, m: map0F, opcode: 0xF8, dir: regIsDst},
	PSUBW: {prefix: 0x66, m: map0F, opcode: 0xF9, dir: regIsDst},
	PSUBD: {prefix: 0x66, m: map0F, opcode: 0xFA, dir: regIsDst},
	PSUBQ: {prefix: 0x66, m: map0F, opcode: 0xFB, dir: regIsDst},

	PCMPEQB: {prefix: 0x66, m: map0F, opcode: 0x74, dir: regIsDst},
	PCMPEQW: {prefix: 0x66, m: map0F, opcode: 0x75, dir: regIsDst},
	PCMPEQD: {prefix: 0x66, m: map0F, opcode: 0x76, dir: regIsDst},
	PCMPEQQ: {prefix: 0x66, m: map0F38, opcode: 0x29, dir: regIsDst},
	PCMPGTQ: {prefix: 0x66, m: map0F38, opcode: 0x37, dir: regIsDst},
	PCMPGTB: {prefix: 0x66, m: map0F, opcode: 0x64, dir: regIsDst},
	PCMPGTW: {prefix: 0x66, m: map0F, opcode: 0x65, dir: regIsDst},
	PCMPGTD: {prefix: 0x66, m: map0F, opcode: 0x66, dir: regIsDst},

	PSLLW: {prefix: 0x66, m: map0F, opcode: 0xF1, dir: regIsDst},
	PSLLD: {prefix: 0x66, m: map0F, opcode: 0xF2, dir: regIsDst},
	PSLLQ: {prefix: 0x66, m: map0F, opcode: 0xF3, dir: regIsDst},
	PSRLW: {prefix: 0x66, m: map0F, opcode: 0xD1, dir: regIsDst},
	PSRLD: {prefix: 0x66, m: map0F, opcode: 0xD2, dir: regIsDst},
	PSRLQ: {prefix: 0x66, m: map0F, opcode: 0xD3, dir: regIsDst},
	PSRAW: {prefix: 0x66, m: map0F, opcode: 0xE1, dir: regIsDst},
	PSRAD: {prefix: 0x66, m: map0F, opcode: 0xE2, dir: regIsDst},

	PADDSB:  {prefix: 0x66, m: map0F, opcode: 0xEC, dir: regIsDst},
	PADDSW:  {prefix: 0x66, m: map0F, opcode: 0xED, dir: regIsDst},
	PADDUSB: {prefix: 0x66, m: map0F, opcode: 0xDC, dir: regIsDst},
	PADDUSW: {prefix: 0x66, m: map0F, opcode: 0xDD, dir: regIsDst},
	PSUBSB:  {prefix: 0x66, m: map0F, opcode: 0xE8, dir: regIsDst},
	PSUBSW:  {prefix: 0x66, m: map0F, opcode: 0xE9, dir: regIsDst},
	PSUBUSB: {prefix: 0x66, m: map0F, opcode: 0xD8, dir: regIsDst},
	PSUBUSW: {prefix: 0x66, m: map0F, opcode: 0xD9, dir: regIsDst},
	PAVGB:   {prefix: 0x66, m: map0F, opcode: 0xE0, dir: regIsDst},
	PAVGW:   {prefix: 0x66, m: map0F, opcode: 0xE3, dir: regIsDst},

	PABSB: {prefix: 0x66, m: map0F38, opcode: 0x1C, dir: regIsDst},
	PABSW: {prefix: 0x66, m: map0F38, opcode: 0x1D, dir: regIsDst},
	PABSD: {prefix: 0x66, m: map0F38, opcode: 0x1E, dir: regIsDst},

	PMINSB: {prefix: 0x66, m: map0F38, opcode: 0x38, dir: regIsDst},
	PMINSW: {prefix: 0x66, m: map0F, opcode: 0xEA, dir: regIsDst},
	PMINSD: {prefix: 0x66, m: map0F38, opcode: 0x39, dir: regIsDst},
	PMINUB: {prefix: 0x66, m: map0F, opcode: 0xDA, dir: regIsDst},
	PMINUW: {prefix: 0x66, m: map0F38, opcode: 0x3A, dir: regIsDst},
	PMINUD: {prefix: 0x66, m: map0F38, opcode: 0x3B, dir: regIsDst},
	PMAXSB: {prefix: 0x66, m: map0F38, opcode: 0x3C, dir: regIsDst},
	PMAXSW: {prefix: 0x66, m: map0F, opcode: 0xEE, dir: regIsDst},
	PMAXSD: {prefix: 0x66, m: map0F38, opcode: 0x3D, dir: regIsDst},
	PMAXUB: {prefix: 0x66, m: map0F, opcode: 0xDE, dir: regIsDst},
	PMAXUW: {prefix: 0x66, m: map0F38, opcode: 0x3E, dir: regIsDst},
	PMAXUD: {prefix: 0x66, m: map0F38, opcode: 0x3F, dir: regIsDst},

	PMULLW:  {prefix: 0x66, m: map0F, opcode: 0xD5, dir: regIsDst},
	PMULHW:  {prefix: 0x66, m: map0F, opcode: 0xE5, dir: regIsDst},
	PMULHUW: {prefix: 0x66, m: map0F, opcode: 0xE4, dir: regIsDst},
	PMULLD:  {prefix: 0x66, m: map0F38, opcode: 0x40, dir: regIsDst},
	PMULULQ: {prefix: 0x66, m: map0F, opcode: 0xF4, dir: regIsDst},
	PMULDQ:  {prefix: 0x66, m: map0F38, opcode: 0x28, dir: regIsDst},

	PACKSSWB: {prefix: 0x66, m: map0F, opcode: 0x63, dir: regIsDst},
	PACKSSDW: {prefix: 0x66, m: map0F, opcode: 0x6B, dir: regIsDst},
	PACKUSWB: {prefix: 0x66, m: map0F, opcode: 0x67, dir: regIsDst},
	PACKUSDW: {prefix: 0x66, m: map0F38, opcode: 0x2B, dir: regIsDst},

	PMOVSXBW: {prefix: 0x66, m: map0F38, opcode: 0x20, dir: regIsDst},
	PMOVSXWD: {prefix: 0x66, m: map0F38, opcode: 0x23, dir: regIsDst},
	PMOVSXDQ: {prefix: 0x66, m: map0F38, opcode: 0x25, dir: regIsDst},
	PMOVZXBW: {prefix: 0x66, m: map0F38, opcode: 0x30, dir: regIsDst},
	PMOVZXWD: {prefix: 0x66, m: map0F38, opcode: 0x33, dir: regIsDst},
	PMOVZXDQ: {prefix: 0x66, m: map0F38, opcode: 0x35, dir: regIsDst},

	PUNPCKLBW:  {prefix: 0x66, m: map0F, opcode: 0x60, dir: regIsDst},
	PUNPCKLWD:  {prefix: 0x66, m: map0F, opcode: 0x61, dir: regIsDst},
	PUNPCKLDQ:  {prefix: 0x66, m: map0F, opcode: 0x62, dir: regIsDst},
	PUNPCKLQDQ: {prefix: 0x66, m: map0F, opcode: 0x6C, dir: regIsDst},
	PUNPCKHBW:  {prefix: 0x66, m: map0F, opcode: 0x68, dir: regIsDst},
	PUNPCKHWD:  {prefix: 0x66, m: map0F, opcode: 0x69, dir: regIsDst},
	PUNPCKHDQ:  {prefix: 0x66, m: map0F, opcode: 0x6A, dir: regIsDst},
	PUNPCKHQDQ: {prefix: 0x66, m: map0F, opcode: 0x6D, dir: regIsDst},

	PSHUFB:   {prefix: 0x66, m: map0F38, opcode: 0x00, dir: regIsDst},
	PSHUFD:   {prefix: 0x66, m: map0F, opcode: 0x70, dir: regIsDst, imm8: true},
	PSHUFHW:  {prefix: 0xF3, m: map0F, opcode: 0x70, dir: regIsDst, imm8: true},
	PSHUFLW:  {prefix: 0xF2, m: map0F, opcode: 0x70, dir: regIsDst, imm8: true},
	SHUFPS:   {prefix: 0x00, m: map0F, opcode: 0xC6, dir: regIsDst, imm8: true},
	PBLENDW:  {prefix: 0x66, m: map0F3A, opcode: 0x0E, dir: regIsDst, imm8: true},
	PBLENDVB: {prefix: 0x66, m: map0F38, opcode: 0x10, dir: regIsDst},

	PEXTRB: {prefix: 0x66, m: map0F3A, opcode: 0x14, dir: rmIsDst, imm8: true},
	// PEXTRW here uses the SSE2 register-only encoding (0F C5), whose
	// operand order is reg(dest gpr), rm(src xmm) — unlike the memory-
	// capable SSE4.1 form (0F3A 15), which is rm-destination like PEXTRB.
	PEXTRW: {prefix: 0x66, m: map0F, opcode: 0xC5, dir: regIsDst, imm8: true},
	PEXTRD: {prefix: 0x66, m: map0F3A, opcode: 0x16, dir: rmIsDst, imm8: true},
	PEXTRQ: {prefix: 0x66, m: map0F3A, opcode: 0x16, dir: rmIsDst, imm8: true, rexW: true},

	PINSRB: {prefix: 0x66, m: map0F3A, opcode: 0x20, dir: regIsDst, imm8: true},
	PINSRW: {prefix: 0x66, m: map0F, opcode: 0xC4, dir: regIsDst, imm8: true},
	PINSRD: {prefix: 0x66, m: map0F3A, opcode: 0x22, dir: regIsDst, imm8: true},
	PINSRQ: {prefix: 0x66, m: map0F3A, opcode: 0x22, dir: regIsDst, imm8: true, rexW: true},

	PHADDW:  {prefix: 0x66, m: map0F38, opcode: 0x01, dir: regIsDst},
	PHADDD:  {prefix: 0x66, m: map0F38, opcode: 0x02, dir: regIsDst},
	PMADDWD: {prefix: 0x66, m: map0F, opcode: 0xF5, dir: regIsDst},

	PTEST:    {prefix: 0x66, m: map0F38, opcode: 0x17, dir: regIsDst},
	// Both movemask forms place the destination GPR in the reg field and
	// the source xmm in rm, the same shape as the ordinary SSE arithmetic
	// forms above (dest=reg/write, src=rm/read) — they are not rm-dest.
	PMOVMSKB: {prefix: 0x66, m: map0F, opcode: 0xD7, dir: regIsDst},
	MOVMSKPS: {prefix: 0x00, m: map0F, opcode: 0x50, dir: regIsDst},

	ANDL: {prefix: 0x00, opcode: 0x23, dir: regIsDst, m: legacyNoEscape},
	ORL:  {prefix: 0x00, opcode: 0x0B, dir: regIsDst, m: legacyNoEscape},
	XORL: {prefix: 0x00, opcode: 0x33, dir: regIsDst, m: legacyNoEscape},
	ADDL: {prefix: 0x00, opcode: 0x03, dir: regIsDst, m: legacyNoEscape},
	MOVL: {prefix: 0x00, opcode: 0x8B, dir: regIsDst, m: legacyNoEscape},
}

// legacyNoEscape marks a one-byte-opcode GPR ALU instruction that has no 0F
// escape at all (plain ADD/AND/XOR/MOV forms). Encoded as a sentinel value
// distinct from the three real opcodeMap values so emitLegacyRR can special
// case "no escape bytes" without a second bool field.
const legacyNoEscape opcodeMap = 0xFF

// immShiftDesc describes a PSLL/PSRL/PSRA-by-immediate group instruction:
// mandatory 66 prefix, 0F escape, group opcode (0x71/0x72/0x73), and the
// ModRM.reg extension digit that selects the operation within the group
// (Intel SDM Table 2-19).
type immShiftDesc struct {
	opcode byte
	digit  byte
}

var immShiftTable = map[Mnemonic]immShiftDesc{
	PSLLW:  {opcode: 0x71, digit: 6},
	PSLLD:  {opcode: 0x72, digit: 6},
	PSLLQ:  {opcode: 0x73, digit: 6},
	PSLLDQ: {opcode: 0x73, digit: 7},
	PSRLW:  {opcode: 0x71, digit: 2},
	PSRLD:  {opcode: 0x72, digit: 2},
	PSRLQ:  {opcode: 0x73, digit: 2},
	PSRLDQ: {opcode: 0x73, digit: 3},
	PSRAW:  {opcode: 0x71, digit: 4},
	PSRAD:  {opcode: 0x72, digit: 4},
}

// vexDesc describes a 3-operand (NDS form) VEX-encoded mnemonic: dst =
// op(src1, src2) with src1 carried in the VEX.vvvv field.
type vexDesc struct {
	pp     byte // 0=none 1=66 2=F3 3=F2
	m      opcodeMap
	opcode byte
	w      byte
}

var vexTable = map[Mnemonic]vexDesc{
	VPCMPGTQ:     {pp: 1, m: map0F38, opcode: 0x37},
	VPMAXSQ:      {pp: 1, m: map0F38, opcode: 0x3D, w: 1},
	VPMAXUQ:      {pp: 1, m: map0F38, opcode: 0x3F, w: 1},
	VPMINSQ:      {pp: 1, m: map0F38, opcode: 0x39, w: 1},
	VPMINUQ:      {pp: 1, m: map0F38, opcode: 0x3B, w: 1},
	VPMULLQ:      {pp: 1, m: map0F38, opcode: 0x40, w: 1},
	VPSRAQ:       {pp: 1, m: map0F38, opcode: 0x72, w: 1}, // group form, handled specially
	VPBROADCASTB: {pp: 1, m: map0F38, opcode: 0x78},
	VPBROADCASTW: {pp: 1, m: map0F38, opcode: 0x79},
	VPBROADCASTD: {pp: 1, m: map0F38, opcode: 0x58},
	VPBROADCASTQ: {pp: 1, m: map0F38, opcode: 0x59},
	VPABSQ:       {pp: 1, m: map0F38, opcode: 0x1F, w: 1},
	VPMOVWB:      {pp: 1, m: map0F38, opcode: 0x30},
	VPOPCNTB:     {pp: 1, m: map0F38, opcode: 0x54},
}
