package grpcstate

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

var errMalformedKeys = errors.New("grpcstate: malformed key list")

func encodeKeys(keys []string) []byte {
	var b []byte
	for _, k := range keys {
		b = protowire.AppendString(b, k)
	}
	return b
}

func decodeKeys(b []byte) ([]string, error) {
	var out []string
	for len(b) > 0 {
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, errMalformedKeys
		}
		out = append(out, string(v))
		b = b[n:]
	}
	return out, nil
}
