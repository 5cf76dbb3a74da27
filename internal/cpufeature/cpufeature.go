// Package cpufeature is the static CPU-feature oracle (component A): a pure
// map from named x86-64 feature tags to booleans, queried once per process
// and consulted by emitters to pick among alternative lowerings. It never
// changes at runtime and has no side effects.
package cpufeature

import "golang.org/x/sys/cpu"

// Feature identifies one of the host CPU capabilities that emitters branch
// on. The set is exactly the one enumerated in spec.md §2.
type Feature int

const (
	SSE3 Feature = iota
	SSSE3
	SSE4_1
	SSE4_2
	AVX
	AVX2
	AVX512F
	AVX512VL
	AVX512BW
	AVX512DQ
	AVX512BITALG
	numFeatures
)

// Set is an immutable snapshot of which Features the host supports.
//
// Unlike wazero's arm64 CpuFeatureFlags (internal/platform/cpuid_arm64.go),
// which backs its own CPUID reads with hand-rolled assembly stubs to stay
// dependency-free, Set is backed by golang.org/x/sys/cpu: this package does
// not share wazero's zero-dependency product constraint, and x/sys/cpu is
// the idiomatic way to query CPUID on this architecture.
type Set struct {
	bits uint32
}

// Host is the Set describing the process's actual CPU, computed once at
// package initialization the same way wazero's package-level CpuFeatures
// var is computed by loadCpuFeatureFlags().
var Host = loadHostFeatures()

func loadHostFeatures() Set {
	var s Set
	s.set(SSE3, cpu.X86.HasSSE3)
	s.set(SSSE3, cpu.X86.HasSSSE3)
	s.set(SSE4_1, cpu.X86.HasSSE41)
	s.set(SSE4_2, cpu.X86.HasSSE42)
	s.set(AVX, cpu.X86.HasAVX)
	s.set(AVX2, cpu.X86.HasAVX2)
	s.set(AVX512F, cpu.X86.HasAVX512F)
	s.set(AVX512VL, cpu.X86.HasAVX512VL)
	s.set(AVX512BW, cpu.X86.HasAVX512BW)
	s.set(AVX512DQ, cpu.X86.HasAVX512DQ)
	s.set(AVX512BITALG, cpu.X86.HasAVX512BITALG)
	return s
}

func (s *Set) set(f Feature, have bool) {
	if have {
		s.bits |= 1 << uint(f)
	}
}

// Has reports whether the given feature is present in this Set.
func (s Set) Has(f Feature) bool {
	return s.bits&(1<<uint(f)) != 0
}

// HasAll reports whether every feature in fs is present in this Set. This is
// the common query shape for emitters gating a fast path on more than one
// extension (e.g. AVX512VL+AVX512DQ for vpmullq).
func (s Set) HasAll(fs ...Feature) bool {
	for _, f := range fs {
		if !s.Has(f) {
			return false
		}
	}
	return true
}

// WithOnly returns a Set asserting exactly the given features, clearing
// everything else. Tests use this to force the emitter down every gated
// path from a single host, proving cross-path equivalence (spec.md §8
// property 1) without needing N physical machines.
func WithOnly(fs ...Feature) Set {
	var s Set
	for _, f := range fs {
		s.set(f, true)
	}
	return s
}
