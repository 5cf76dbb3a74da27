package cpufeature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithOnlySetsExactlyRequestedFeatures(t *testing.T) {
	s := WithOnly(SSSE3, AVX2)
	require.True(t, s.Has(SSSE3))
	require.True(t, s.Has(AVX2))
	require.False(t, s.Has(SSE4_1))
	require.False(t, s.Has(AVX512F))
}

func TestHasAllRequiresEveryFeature(t *testing.T) {
	s := WithOnly(AVX512VL, AVX512DQ)
	require.True(t, s.HasAll(AVX512VL, AVX512DQ))
	require.False(t, s.HasAll(AVX512VL, AVX512BW))
}

func TestEmptySetHasNoFeatures(t *testing.T) {
	var s Set
	for f := Feature(0); f < numFeatures; f++ {
		require.False(t, s.Has(f))
	}
}

func TestHostIsComputedOnce(t *testing.T) {
	// Host is a package-level var, so it is computed once at package init;
	// this merely asserts that reading it doesn't panic.
	require.NotPanics(t, func() { _ = Host.Has(AVX) })
}
