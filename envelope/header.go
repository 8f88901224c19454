package envelope

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the host's TransactionHeader message.
const (
	hdrBatcherPublicKey protowire.Number = 1
	hdrDependencies     protowire.Number = 2
	hdrFamilyName       protowire.Number = 3
	hdrFamilyVersion    protowire.Number = 4
	hdrInputs           protowire.Number = 5
	hdrNonce            protowire.Number = 6
	hdrOutputs          protowire.Number = 7
	hdrPayloadSHA512    protowire.Number = 9
	hdrSignerPublicKey  protowire.Number = 10
)

// Header is the signed part of a transaction.
type Header struct {
	BatcherPublicKey string
	Dependencies     []string
	FamilyName       string
	FamilyVersion    string
	Inputs           []string
	Nonce            string
	Outputs          []string
	PayloadSHA512    string
	SignerPublicKey  string
}

// Marshal encodes h in field-number order. The result is what gets signed,
// so equal headers always produce equal bytes.
func (h Header) Marshal() []byte {
	var b []byte
	b = appendString(b, hdrBatcherPublicKey, h.BatcherPublicKey)
	b = appendStrings(b, hdrDependencies, h.Dependencies)
	b = appendString(b, hdrFamilyName, h.FamilyName)
	b = appendString(b, hdrFamilyVersion, h.FamilyVersion)
	b = appendStrings(b, hdrInputs, h.Inputs)
	b = appendString(b, hdrNonce, h.Nonce)
	b = appendStrings(b, hdrOutputs, h.Outputs)
	b = appendString(b, hdrPayloadSHA512, h.PayloadSHA512)
	b = appendString(b, hdrSignerPublicKey, h.SignerPublicKey)
	return b
}

func UnmarshalHeader(b []byte) (Header, error) {
	fields, err := parseFields(b)
	if err != nil {
		return Header{}, err
	}
	var h Header
	for _, f := range fields {
		switch f.num {
		case hdrBatcherPublicKey, hdrDependencies, hdrFamilyName, hdrFamilyVersion,
			hdrInputs, hdrNonce, hdrOutputs, hdrPayloadSHA512, hdrSignerPublicKey:
			if err := expectBytes(f); err != nil {
				return Header{}, err
			}
		default:
			continue
		}
		s := string(f.bytes)
		switch f.num {
		case hdrBatcherPublicKey:
			h.BatcherPublicKey = s
		case hdrDependencies:
			h.Dependencies = append(h.Dependencies, s)
		case hdrFamilyName:
			h.FamilyName = s
		case hdrFamilyVersion:
			h.FamilyVersion = s
		case hdrInputs:
			h.Inputs = append(h.Inputs, s)
		case hdrNonce:
			h.Nonce = s
		case hdrOutputs:
			h.Outputs = append(h.Outputs, s)
		case hdrPayloadSHA512:
			h.PayloadSHA512 = s
		case hdrSignerPublicKey:
			h.SignerPublicKey = s
		}
	}
	return h, nil
}
