// Package cidutil derives content identifiers for ledger state.
//
// All CIDs are CIDv1 with the "raw" multicodec and a sha2-256 multihash.
package cidutil

import (
	"errors"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"google.golang.org/protobuf/encoding/protowire"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CanonicalEntries encodes key/value pairs in ascending key order, each key
// and value framed as a length-prefixed field. Identical maps always encode
// to identical bytes.
func CanonicalEntries(entries map[string][]byte) []byte {
	keys := make([]string, 0, len(entries))
	size := 0
	for k, v := range entries {
		keys = append(keys, k)
		size += protowire.SizeBytes(len(k)) + protowire.SizeBytes(len(v))
	}
	sort.Strings(keys)
	out := make([]byte, 0, size)
	for _, k := range keys {
		out = protowire.AppendString(out, k)
		out = protowire.AppendBytes(out, entries[k])
	}
	return out
}

// EntriesCID returns the CID of CanonicalEntries(entries).
func EntriesCID(entries map[string][]byte) (cid.Cid, error) {
	return CIDv1RawSHA256CID(CanonicalEntries(entries))
}

// ErrMalformedEntries reports bytes that are not a CanonicalEntries encoding.
var ErrMalformedEntries = errors.New("cidutil: malformed entries")

// DecodeEntries parses the output of CanonicalEntries. Keys must be strictly
// ascending, so every accepted input is canonical.
func DecodeEntries(b []byte) (map[string][]byte, error) {
	out := map[string][]byte{}
	prev := ""
	for first := true; len(b) > 0; first = false {
		k, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, ErrMalformedEntries
		}
		b = b[n:]
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, ErrMalformedEntries
		}
		b = b[n:]
		key := string(k)
		if !first && key <= prev {
			return nil, ErrMalformedEntries
		}
		prev = key
		out[key] = append([]byte(nil), v...)
	}
	return out, nil
}
