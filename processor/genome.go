package processor

import (
	"strings"

	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/prng"
)

const (
	// GenomeSegments is the number of 4-hex-digit segments in a genome.
	GenomeSegments = 9
	segmentBound   = 1 << 16
)

const hexdigits = "0123456789abcdef"

// SynthesizeDNA draws GenomeSegments values below 65536 from g and renders
// each as 4 zero-padded lowercase hex digits.
func SynthesizeDNA(g *prng.Generator) string {
	var b strings.Builder
	b.Grow(GenomeSegments * 4)
	for i := 0; i < GenomeSegments; i++ {
		v := g.Next(segmentBound)
		b.WriteByte(hexdigits[v>>12&0xf])
		b.WriteByte(hexdigits[v>>8&0xf])
		b.WriteByte(hexdigits[v>>4&0xf])
		b.WriteByte(hexdigits[v&0xf])
	}
	return b.String()
}

// mintMoji creates a collection's worth of unbred moji for owner, in draw order.
func mintMoji(owner string, g *prng.Generator) []model.Moji {
	out := make([]model.Moji, 0, model.CollectionSize)
	for i := 0; i < model.CollectionSize; i++ {
		out = append(out, model.NewMoji(owner, SynthesizeDNA(g)))
	}
	return out
}
