// Package ir is the architecture-neutral vector IR this module lowers:
// opaque 128-bit values produced by immutable instruction handles with an
// opcode, positional arguments, and a use-count. Modeled on the shape the
// teacher's compiler.compiler interface implies for wasm SIMD ops
// (tetratelabs-wazero's internal/engine/compiler/compiler.go's
// compileV128* methods), generalized
// from "one Go method per wasm opcode" to "one Opcode value per vector
// operation" since this layer's IR is data, not method dispatch.
package ir

// Lane names a lane width/count schema. Dispatch on Lane is always a plain
// Go switch, never virtual — emitters branch on Lane the way the teacher's
// wazevo backend branches on its lowerVShiftI8x16Imm/i16x8Imm helpers
// (tetratelabs-wazero's internal/engine/wazevo/backend/isa/amd64/
// machine_vec.go), which select by lane size inline rather than through
// a polymorphic interface.
type Lane uint8

const (
	E8 Lane = iota
	E16
	E32
	E64
	E128
)

// BitWidth returns the lane's width in bits.
func (l Lane) BitWidth() int {
	switch l {
	case E8:
		return 8
	case E16:
		return 16
	case E32:
		return 32
	case E64:
		return 64
	default:
		return 128
	}
}

// Count returns the number of lanes of this width in a 128-bit register.
func (l Lane) Count() int { return 128 / l.BitWidth() }

// Opcode tags one vector IR instruction. The set is exactly the family
// enumerated for component E.
type Opcode uint16

const (
	OpInvalid Opcode = iota

	OpGetElement
	OpSetElement

	OpAnd
	OpOr
	OpEor
	OpNot

	OpAdd
	OpSub

	OpEqual
	OpGreaterS

	OpLogicalShiftLeftImm
	OpLogicalShiftRightImm
	OpArithmeticShiftRightImm
	OpLogicalVShiftS
	OpLogicalVShiftU

	OpHalvingAddS
	OpHalvingAddU
	OpHalvingSubS
	OpHalvingSubU
	OpRoundingHalvingAddS
	OpRoundingHalvingAddU

	OpAbs
	OpSignedSaturatedAbs

	OpMinS
	OpMinU
	OpMaxS
	OpMaxU

	OpMultiply
	OpSignedSaturatedDoublingMultiplyReturnHigh

	OpNarrow
	OpSignExtend
	OpZeroExtend
	OpSignedSaturatedNarrowToSigned
	OpSignedSaturatedNarrowToUnsigned
	OpUnsignedSaturatedNarrow

	OpPairedAdd
	OpPairedAddLower
	OpPairedAddSignedWiden
	OpPairedAddUnsignedWiden
	OpPairedMinS
	OpPairedMinU
	OpPairedMaxS
	OpPairedMaxU

	OpDeinterleaveEven
	OpDeinterleaveOdd
	OpInterleaveLower
	OpInterleaveUpper
	OpBroadcast
	OpBroadcastLower
	OpShuffleHighHalfwords
	OpShuffleLowHalfwords
	OpShuffleWords
	OpExtract
	OpExtractLower

	OpPolynomialMultiply
	OpPolynomialMultiplyLong

	OpPopulationCount
	OpReverseBits

	OpRoundingShiftLeftS
	OpRoundingShiftLeftU

	OpVectorTable
	OpVectorTableLookup

	OpZeroVector
	OpZeroUpper
	OpAbsoluteDifferenceS
	OpAbsoluteDifferenceU
)

// ValueID identifies one Inst's result within a block.
type ValueID uint32

// ArgKind distinguishes an immediate argument from a value reference.
type ArgKind uint8

const (
	ArgImmediate ArgKind = iota
	ArgValue
)

// Arg is one positional argument to an Inst: either an immediate (byte,
// word, or dword-sized, interpretation opcode-specific) or a reference to
// a prior Inst's result.
type Arg struct {
	Kind  ArgKind
	Imm   int64
	Value ValueID
}

// ImmArg builds an immediate argument.
func ImmArg(v int64) Arg { return Arg{Kind: ArgImmediate, Imm: v} }

// ValueArg builds a value-reference argument.
func ValueArg(v ValueID) Arg { return Arg{Kind: ArgValue, Value: v} }

// Inst is one immutable IR instruction: an opcode, its lane schema, and its
// ordered arguments. useCount is incremented by Block.Append for every Arg
// referencing this Inst and is read-only to emitters (spec.md's "use-count"
// is advisory metadata the allocator consults, not a reservation itself).
type Inst struct {
	ID       ValueID
	Op       Opcode
	Lane     Lane
	Args     []Arg
	useCount int
}

// UseCount returns the number of times this instruction's result is
// referenced by later instructions' arguments.
func (i *Inst) UseCount() int { return i.useCount }

// Block is an ordered, append-only list of Inst in topological order — the
// unit an emission context processes (spec.md §5: "emission is strictly
// sequential ... each opcode's emitter runs to completion ... before the
// next begins").
type Block struct {
	insts []*Inst
	next  ValueID
}

// NewBlock returns an empty block.
func NewBlock() *Block { return &Block{} }

// Append validates and appends a new instruction, returning its ValueID.
// Validation is construction-time only (spec.md ambient-stack choice:
// there is no runtime-recoverable error path past this point) — OpInvalid
// or an argument referencing a value not yet appended panics immediately
// rather than being discovered mid-emission. Argument count and kind are
// not checked.
func (b *Block) Append(op Opcode, lane Lane, args ...Arg) ValueID {
	if op == OpInvalid {
		panic("ir: invalid opcode")
	}
	id := b.next
	b.next++
	inst := &Inst{ID: id, Op: op, Lane: lane, Args: args}
	for _, a := range args {
		if a.Kind == ArgValue {
			if int(a.Value) >= len(b.insts) {
				panic("ir: argument references a value not yet defined")
			}
			b.insts[a.Value].useCount++
		}
	}
	b.insts = append(b.insts, inst)
	return id
}

// Insts returns the block's instructions in topological (emission) order.
func (b *Block) Insts() []*Inst { return b.insts }

// Get returns the instruction with the given ValueID.
func (b *Block) Get(id ValueID) *Inst { return b.insts[id] }
