package emit

import "github.com/dynarmic/vecx64/internal/ir"

// Emit lowers one IR instruction, dispatching on its opcode. Lane dispatch
// inside each family function is a plain switch, never virtual — see
// package ir's doc comment on Lane. Every opcode package ir defines has a
// case below; the default arm exists only to catch ir.OpInvalid (which
// ir.Block.Append already refuses to append) and any future opcode added
// to package ir without a matching emitter, panicking with an identifiable
// message rather than silently emitting nothing.
func Emit(c *Context, block *ir.Block, inst *ir.Inst) {
	switch inst.Op {
	case ir.OpAnd:
		And(c, block, inst)
	case ir.OpOr:
		Or(c, block, inst)
	case ir.OpEor:
		Eor(c, block, inst)
	case ir.OpNot:
		Not(c, block, inst)
	case ir.OpAdd:
		Add(c, block, inst)
	case ir.OpSub:
		Sub(c, block, inst)
	case ir.OpEqual:
		Equal(c, block, inst)
	case ir.OpGreaterS:
		GreaterS(c, block, inst, greaterS64Fallback)
	case ir.OpLogicalShiftLeftImm:
		LogicalShiftLeftImm(c, block, inst)
	case ir.OpLogicalShiftRightImm:
		LogicalShiftRightImm(c, block, inst)
	case ir.OpArithmeticShiftRightImm:
		ArithmeticShiftRightImm(c, block, inst)
	case ir.OpMinS:
		MinS(c, block, inst)
	case ir.OpMaxS:
		MaxS(c, block, inst)
	case ir.OpMinU:
		MinU(c, block, inst)
	case ir.OpMaxU:
		MaxU(c, block, inst)
	case ir.OpNarrow:
		Narrow(c, block, inst)
	case ir.OpSignExtend:
		SignExtend(c, block, inst)
	case ir.OpZeroExtend:
		ZeroExtend(c, block, inst)
	case ir.OpGetElement:
		GetElement(c, block, inst)
	case ir.OpSetElement:
		SetElement(c, block, inst)
	case ir.OpZeroVector:
		ZeroVector(c, block, inst)
	case ir.OpZeroUpper:
		ZeroUpper(c, block, inst)
	case ir.OpAbsoluteDifferenceU:
		AbsoluteDifferenceU(c, block, inst)
	case ir.OpAbsoluteDifferenceS:
		AbsoluteDifferenceS(c, block, inst)
	case ir.OpLogicalVShiftS:
		LogicalVShiftS(c, block, inst)
	case ir.OpLogicalVShiftU:
		LogicalVShiftU(c, block, inst)
	case ir.OpHalvingAddS:
		HalvingAddS(c, block, inst)
	case ir.OpHalvingAddU:
		HalvingAddU(c, block, inst)
	case ir.OpHalvingSubS:
		HalvingSubS(c, block, inst)
	case ir.OpHalvingSubU:
		HalvingSubU(c, block, inst)
	case ir.OpRoundingHalvingAddS:
		RoundingHalvingAddS(c, block, inst)
	case ir.OpRoundingHalvingAddU:
		RoundingHalvingAddU(c, block, inst)
	case ir.OpAbs:
		Abs(c, block, inst)
	case ir.OpSignedSaturatedAbs:
		SignedSaturatedAbs(c, block, inst)
	case ir.OpMultiply:
		Multiply(c, block, inst)
	case ir.OpSignedSaturatedDoublingMultiplyReturnHigh:
		SignedSaturatedDoublingMultiplyReturnHigh(c, block, inst)
	case ir.OpSignedSaturatedNarrowToSigned:
		SignedSaturatedNarrowToSigned(c, block, inst)
	case ir.OpSignedSaturatedNarrowToUnsigned:
		SignedSaturatedNarrowToUnsigned(c, block, inst)
	case ir.OpUnsignedSaturatedNarrow:
		UnsignedSaturatedNarrow(c, block, inst)
	case ir.OpPairedAdd:
		PairedAdd(c, block, inst)
	case ir.OpPairedAddLower:
		PairedAddLower(c, block, inst)
	case ir.OpPairedAddSignedWiden:
		PairedAddSignedWiden(c, block, inst)
	case ir.OpPairedAddUnsignedWiden:
		PairedAddUnsignedWiden(c, block, inst)
	case ir.OpPairedMinS:
		PairedMinS(c, block, inst)
	case ir.OpPairedMinU:
		PairedMinU(c, block, inst)
	case ir.OpPairedMaxS:
		PairedMaxS(c, block, inst)
	case ir.OpPairedMaxU:
		PairedMaxU(c, block, inst)
	case ir.OpInterleaveLower:
		InterleaveLower(c, block, inst)
	case ir.OpInterleaveUpper:
		InterleaveUpper(c, block, inst)
	case ir.OpDeinterleaveEven:
		DeinterleaveEven(c, block, inst)
	case ir.OpDeinterleaveOdd:
		DeinterleaveOdd(c, block, inst)
	case ir.OpBroadcast:
		Broadcast(c, block, inst)
	case ir.OpBroadcastLower:
		BroadcastLower(c, block, inst)
	case ir.OpShuffleHighHalfwords:
		ShuffleHighHalfwords(c, block, inst)
	case ir.OpShuffleLowHalfwords:
		ShuffleLowHalfwords(c, block, inst)
	case ir.OpShuffleWords:
		ShuffleWords(c, block, inst)
	case ir.OpExtract:
		Extract(c, block, inst)
	case ir.OpExtractLower:
		ExtractLower(c, block, inst)
	case ir.OpPolynomialMultiply:
		PolynomialMultiply(c, block, inst)
	case ir.OpPolynomialMultiplyLong:
		PolynomialMultiplyLong(c, block, inst)
	case ir.OpPopulationCount:
		PopulationCount(c, block, inst)
	case ir.OpReverseBits:
		ReverseBits(c, block, inst)
	case ir.OpRoundingShiftLeftS:
		RoundingShiftLeftS(c, block, inst)
	case ir.OpRoundingShiftLeftU:
		RoundingShiftLeftU(c, block, inst)
	case ir.OpVectorTable:
		VectorTable(c, block, inst)
	case ir.OpVectorTableLookup:
		VectorTableLookup(c, block, inst)
	default:
		panic("emit: unhandled opcode")
	}
}
