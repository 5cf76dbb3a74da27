package fallback

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dynarmic/vecx64/internal/asm/amd64"
)

func TestCallOneArgStoresOperandBeforeCalling(t *testing.T) {
	a := amd64.NewAssembler(amd64.SystemV)
	CallOneArg(a, 0x4000, amd64.RBX, amd64.XMM3)
	code := a.Finalize()
	require.NotEmpty(t, code)
	// storeXMM emits MOVDQA [rbx+16], xmm3 before any call-sequence bytes.
	require.True(t, bytes.Contains(code, []byte{0x66, 0x0F, 0x7F}))
}

func TestCallOneArgSaturatingOrsIntoFPSRQC(t *testing.T) {
	a := amd64.NewAssembler(amd64.SystemV)
	CallOneArgSaturating(a, 0x4000, amd64.RBX, amd64.XMM3, 0x20)
	code := a.Finalize()
	// CompileOrALToMemory8 encodes OR r/m8, al as opcode 0x08 against
	// [r15+disp32]; r15 needs REX.B so the ModRM.rm=111 is unambiguous.
	require.True(t, bytes.Contains(code, []byte{0x08, 0x87, 0x20, 0x00, 0x00, 0x00}))
}

func TestCallTwoArgSpillsBothOperandsAtDistinctOffsets(t *testing.T) {
	a := amd64.NewAssembler(amd64.SystemV)
	CallTwoArg(a, 0x4000, amd64.RBX, amd64.XMM1, amd64.XMM2)
	code := a.Finalize()
	require.NotEmpty(t, code)
}

func TestLayoutConstantsAreSixteenByteMultiples(t *testing.T) {
	require.Zero(t, OneArgLayout%16)
	require.Zero(t, TwoArgLayout%16)
	require.Greater(t, TwoArgLayout, OneArgLayout)
}

func TestWin64CallAddsShadowSpaceAroundFallbackCall(t *testing.T) {
	sysv := amd64.NewAssembler(amd64.SystemV)
	CallOneArg(sysv, 0x4000, amd64.RBX, amd64.XMM3)
	win := amd64.NewAssembler(amd64.Win64)
	CallOneArg(win, 0x4000, amd64.RBX, amd64.XMM3)
	require.Greater(t, len(win.Finalize()), len(sysv.Finalize()))
}
