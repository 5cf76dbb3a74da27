package amd64

import "encoding/binary"

// pooledConst is one entry of the block's constant pool (spec.md §3 invariant
// 5, §4.B MConst, §9 "Constant-pool deduplication"). Mirrors the teacher's
// constPool (internal/asm/amd64/impl_staticconst.go) but keyed directly by
// the 16-byte literal rather than by an opaque asm.StaticConst key, since
// this package's pool only ever holds 16-byte vector literals.
type pooledConst struct {
	bytes  [16]byte
	offset int // finalized position in the code buffer, set by layout
	users  []int32 // buffer offsets of the 4-byte displacement field to patch
}

type constPool struct {
	byKey map[[16]byte]*pooledConst
	order []*pooledConst
}

func newConstPool() *constPool {
	return &constPool{byKey: map[[16]byte]*pooledConst{}}
}

// intern deduplicates literal by its 16-byte bit pattern (spec.md invariant
// 5: "Constants added via MConst are deduplicated by bit pattern") and
// returns the pool entry, registering userOffset as a site that needs its
// RIP-relative displacement patched once the pool is laid out.
func (p *constPool) intern(literal [16]byte, userOffset int32) *pooledConst {
	c, ok := p.byKey[literal]
	if !ok {
		c = &pooledConst{bytes: literal}
		p.byKey[literal] = c
		p.order = append(p.order, c)
	}
	c.users = append(c.users, userOffset)
	return c
}

// layout assigns every entry its final offset in a 16-byte aligned pool
// placed after codeLen bytes of code, and returns the padding needed for
// that alignment plus the pool bytes for the caller to append. The pool is
// frozen after this call (spec.md §5: "append-only during a block's
// emission and frozen once the block is complete").
func (p *constPool) layout(codeLen int) (pad int, data []byte) {
	pad = (16 - codeLen%16) % 16
	base := codeLen + pad
	for _, c := range p.order {
		c.offset = base
		data = append(data, c.bytes[:]...)
		base += 16
	}
	return pad, data
}

// patchDisplacements rewrites every recorded RIP-relative call site now that
// final offsets are known. instrEndOf returns the offset of the byte immediately
// following each 4-byte displacement field at userOffset.
func (p *constPool) patchDisplacements(buf []byte, instrEndOf func(userOffset int32) int32) {
	for _, c := range p.order {
		for _, u := range c.users {
			disp := int32(c.offset) - instrEndOf(u)
			binary.LittleEndian.PutUint32(buf[u:u+4], uint32(disp))
		}
	}
}

// Deduplicated reports the number of distinct 16-byte literals currently
// interned — used by tests asserting spec.md §8 property 4.
func (p *constPool) Deduplicated() int {
	return len(p.order)
}
