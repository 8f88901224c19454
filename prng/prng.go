// Package prng provides a deterministic pseudo-random generator seeded from
// transaction data.
//
// The stream is SHAKE-256 over a fixed domain tag and the seed. Nothing in
// this package reads wall-clock time or a system entropy source: the same
// seed yields the same sequence of draws on every node, in every process.
package prng

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DomainTag is absorbed ahead of every seed. Changing it changes every genome.
const DomainTag = "cryptomoji/prng/v1"

// MaxBound is the largest accepted maxExclusive for Next.
const MaxBound = 1 << 32

// Generator produces bounded draws from a seeded SHAKE-256 stream.
// A Generator is not safe for concurrent use.
type Generator struct {
	xof   sha3.ShakeHash
	draws int
}

// New returns a Generator seeded with seed.
func New(seed []byte) *Generator {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte(DomainTag))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(seed)
	return &Generator{xof: h}
}

// FromSignature seeds a Generator from a transaction's header signature, as
// carried in the envelope (hex string bytes, not decoded).
func FromSignature(signature string) *Generator {
	return New([]byte(signature))
}

// Next returns a value in [0, maxExclusive) and advances the stream.
//
// Draws are 32-bit big-endian words; words falling in the biased tail are
// rejected and redrawn, so every value is equally likely. Next panics if
// maxExclusive is not in (0, MaxBound].
func (g *Generator) Next(maxExclusive int) int {
	if maxExclusive <= 0 || uint64(maxExclusive) > MaxBound {
		panic(fmt.Sprintf("prng: maxExclusive %d out of range", maxExclusive))
	}
	m := uint64(maxExclusive)
	limit := MaxBound - MaxBound%m
	var word [4]byte
	for {
		_, _ = g.xof.Read(word[:])
		g.draws++
		v := uint64(binary.BigEndian.Uint32(word[:]))
		if v < limit {
			return int(v % m)
		}
	}
}

// Draws reports how many 32-bit words have been consumed, rejected ones included.
func (g *Generator) Draws() int { return g.draws }
