package emit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dynarmic/vecx64/internal/asm/amd64"
	"github.com/dynarmic/vecx64/internal/cpufeature"
	"github.com/dynarmic/vecx64/internal/ir"
	"github.com/dynarmic/vecx64/internal/regalloc"
)

func newContext(features cpufeature.Set) (*Context, *ir.Block) {
	alloc := regalloc.New(amd64.SystemV)
	asm := amd64.NewAssembler(amd64.SystemV)
	return &Context{Alloc: alloc, Asm: asm, Features: features}, ir.NewBlock()
}

func defineZeroVectors(c *Context, block *ir.Block, n int) []ir.ValueID {
	ids := make([]ir.ValueID, n)
	for i := range ids {
		id := block.Append(ir.OpZeroVector, ir.E32)
		Emit(c, block, block.Get(id))
		ids[i] = id
	}
	return ids
}

func TestAndOfTwoZeroVectorsEmitsPAND(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpAnd, ir.E32, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	Emit(c, block, block.Get(id))
	// pxor,pxor (2*4 bytes) then 66 0F DB /r (PAND).
	require.True(t, bytes.Contains(c.Asm.Finalize(), []byte{0x66, 0x0F, 0xDB}))
}

func TestEqual64SelectsPCMPEQQUnderSSE41(t *testing.T) {
	c, block := newContext(cpufeature.WithOnly(cpufeature.SSE4_1))
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpEqual, ir.E64, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	Emit(c, block, block.Get(id))
	code := c.Asm.Finalize()
	// 66 0F 38 29 /r is PCMPEQQ.
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x38, 0x29}))
}

func TestEqual64FallsBackToPCMPEQDEmulationWithoutSSE41(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpEqual, ir.E64, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	Emit(c, block, block.Get(id))
	code := c.Asm.Finalize()
	// Must NOT use pcmpeqq (0F 38 29) and must use pcmpeqd (66 0F 76).
	require.False(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x38, 0x29}))
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x76}))
}

func TestNotMaterializesAllOnesViaSelfCompare(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	ids := defineZeroVectors(c, block, 1)
	id := block.Append(ir.OpNot, ir.E32, ir.ValueArg(ids[0]))
	Emit(c, block, block.Get(id))
	code := c.Asm.Finalize()
	// pcmpeqw reg,reg: 66 0F 75 /r with identical reg/rm fields.
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x75}))
}

func TestZeroVectorDefinesExactlyOnce(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	id := block.Append(ir.OpZeroVector, ir.E32)
	Emit(c, block, block.Get(id))
	reg, ok := c.Alloc.Lookup(regalloc.ValueID(id))
	require.True(t, ok)
	require.NotEqual(t, amd64.NilRegister, reg)
}

func TestGreaterS32UsesNativePCMPGTD(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpGreaterS, ir.E32, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	Emit(c, block, block.Get(id))
	code := c.Asm.Finalize()
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x66})) // PCMPGTD
}

func TestGreaterS64FallsBackWithoutSSE42(t *testing.T) {
	c, block := newContext(cpufeature.Set{})
	c.Scalar.GreaterS64 = 0x5000
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpGreaterS, ir.E64, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	require.NotPanics(t, func() { Emit(c, block, block.Get(id)) })
	code := c.Asm.Finalize()
	require.False(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x38, 0x37})) // not PCMPGTQ
}

func TestGreaterS64UsesPCMPGTQUnderSSE42(t *testing.T) {
	c, block := newContext(cpufeature.WithOnly(cpufeature.SSE4_2))
	ids := defineZeroVectors(c, block, 2)
	id := block.Append(ir.OpGreaterS, ir.E64, ir.ValueArg(ids[0]), ir.ValueArg(ids[1]))
	Emit(c, block, block.Get(id))
	code := c.Asm.Finalize()
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x38, 0x37})) // PCMPGTQ
}

func TestGetElementLane0OnEveryFeatureMaskDoesNotPanic(t *testing.T) {
	for _, features := range []cpufeature.Set{cpufeature.Set{}, cpufeature.WithOnly(cpufeature.SSE4_1)} {
		c, block := newContext(features)
		v := defineZeroVectors(c, block, 1)[0]
		id := block.Append(ir.OpGetElement, ir.E32, ir.ValueArg(v), ir.ImmArg(0))
		require.NotPanics(t, func() { Emit(c, block, block.Get(id)) })
	}
}
