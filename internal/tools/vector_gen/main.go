// Command vector_gen prints the conformance vectors stored in
// testdata/conformance/moji/vectors.json.
//
//	go run ./internal/tools/vector_gen > testdata/conformance/moji/vectors.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"cryptomoji.dev/moji/address"
	"cryptomoji.dev/moji/model"
	"cryptomoji.dev/moji/prng"
	"cryptomoji.dev/moji/processor"
)

const (
	ownerA = "034f355bdcb7cc0af728ef3cceb9615d90684bb5b2ca5f859ab0f0b704075871aa"
	ownerB = "02d0f8a2f5c0a5e4b0e8bd0f0ed0b5d8e9b64a3c2c4e0c9d4b6f1f5a7e3c2b1a90"

	collectionSignature = "3044022079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f8179802201a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f809"

	zeroDNA = "000000000000000000000000000000000000"
)

type addressVector struct {
	OwnerKey        string `json:"owner_key"`
	Collection      string `json:"collection"`
	Owner           string `json:"owner"`
	SireListing     string `json:"sire_listing"`
	MojiOwnerPrefix string `json:"moji_owner_prefix"`
}

type mojiVector struct {
	OwnerKey string `json:"owner_key"`
	DNA      string `json:"dna"`
	Address  string `json:"address"`
}

type collectionVector struct {
	Signer     string   `json:"signer"`
	Signature  string   `json:"signature"`
	Genomes    []string `json:"genomes"`
	Moji       []string `json:"moji"`
	Collection string   `json:"collection"`
}

type vectors struct {
	Namespace   string             `json:"namespace"`
	Addresses   []addressVector    `json:"addresses"`
	Moji        []mojiVector       `json:"moji"`
	Collections []collectionVector `json:"collections"`
}

func generate() vectors {
	v := vectors{Namespace: address.Namespace}
	for _, k := range []string{ownerA, ownerB} {
		v.Addresses = append(v.Addresses, addressVector{
			OwnerKey:        k,
			Collection:      address.CollectionAddress(k),
			Owner:           address.OwnerAddress(k),
			SireListing:     address.SireListingAddress(k),
			MojiOwnerPrefix: address.MojiOwnerPrefix(k).String(),
		})
	}

	c := collection(ownerA, collectionSignature)
	for _, m := range [][2]string{{ownerA, zeroDNA}, {ownerB, zeroDNA}, {ownerA, c.Genomes[0]}} {
		v.Moji = append(v.Moji, mojiVector{OwnerKey: m[0], DNA: m[1], Address: address.MojiAddress(m[0], m[1])})
	}
	v.Collections = append(v.Collections, c)
	return v
}

func collection(signer, signature string) collectionVector {
	g := prng.FromSignature(signature)
	c := collectionVector{Signer: signer, Signature: signature, Collection: address.CollectionAddress(signer)}
	for i := 0; i < model.CollectionSize; i++ {
		dna := processor.SynthesizeDNA(g)
		c.Genomes = append(c.Genomes, dna)
		c.Moji = append(c.Moji, address.MojiAddress(signer, dna))
	}
	sort.Strings(c.Moji)
	return c
}

func main() {
	b, err := json.MarshalIndent(generate(), "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", b)
}
