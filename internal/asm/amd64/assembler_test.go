package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileRegisterToRegisterPADDB(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileRegisterToRegister(PADDB, XMM1, XMM0)
	// 66 0F FC /r, ModRM.reg=XMM0(000), ModRM.rm=XMM1(001), mod=11.
	require.Equal(t, []byte{0x66, 0x0F, 0xFC, 0xC1}, a.buf)
}

func TestCompileRegisterToRegisterSetsRexForExtendedRegisters(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileRegisterToRegister(PADDB, XMM9, XMM8)
	// REX.R selects XMM8 in the reg field, REX.B selects XMM9 in rm.
	require.Equal(t, byte(0x66), a.buf[0])
	require.Equal(t, byte(0x45), a.buf[1]) // REX: 0100 0101 = W0 R1 X0 B1
	require.Equal(t, []byte{0x0F, 0xFC}, a.buf[2:4])
}

func TestCompileShiftImm8EncodesGroupDigit(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileShiftImm8(PSLLW, XMM2, 5)
	// 66 0F 71 /6 ib: ModRM.reg=6 (group digit), ModRM.rm=XMM2(010).
	require.Equal(t, []byte{0x66, 0x0F, 0x71, 0xF2, 0x05}, a.buf)
}

func TestConstPoolDeduplicatesEqualLiterals(t *testing.T) {
	a := NewAssembler(SystemV)
	lit := [16]byte{1, 2, 3}
	a.CompileLoadStaticConst(lit, XMM0)
	a.CompileLoadStaticConst(lit, XMM1)
	require.Equal(t, 1, a.ConstPoolSize())
}

func TestConstPoolKeepsDistinctLiteralsSeparate(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileLoadStaticConst([16]byte{1}, XMM0)
	a.CompileLoadStaticConst([16]byte{2}, XMM1)
	require.Equal(t, 2, a.ConstPoolSize())
}

func TestFinalizePadsPoolTo16ByteAlignment(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileLoadStaticConst([16]byte{1}, XMM0)
	code := a.Finalize()
	// code buffer before the pool is 8 bytes (XMM0 needs no REX: 66 0F 6F
	// /r + disp32 = 1+2+1+4), then 8 bytes of padding, then the 16-byte
	// literal starting at offset 16.
	require.Equal(t, 32, len(code))
	require.Equal(t, 0, (len(code)-16)%16) // pool starts 16-byte aligned
}

func TestVexRRREncodesNDSForm(t *testing.T) {
	a := NewAssembler(SystemV)
	a.CompileVexRRR(VPCMPGTQ, XMM1, XMM2, XMM0)
	// VEX.128.66.0F38.WIG 37 /r: C4, byte1 (~R ~X ~B mmmmm), byte2 (W vvvv L pp).
	require.Equal(t, byte(0xC4), a.buf[0])
	require.Equal(t, byte(0x37), a.buf[3])
}

func TestCallFunctionAddsShadowSpaceOnlyOnWin64(t *testing.T) {
	sysv := NewAssembler(SystemV)
	sysv.CallFunction(0x1000)
	win := NewAssembler(Win64)
	win.CallFunction(0x1000)
	require.Greater(t, len(win.buf), len(sysv.buf))
}
