// Package keys manages the signing keys that authorize cryptomoji transactions.
//
// Public keys and signatures travel as lowercase hex; the public key hex of a
// transaction's signer is the identity the processor uses for ownership.
//
// Two algorithms are supported, Ed25519 and Dilithium3 (circl). Verify tells
// them apart by public key length, so a hex key is self-describing.
//
// The filesystem KeyStore is a local-first convenience for the CLI and tests;
// it is not part of the ledger protocol.
package keys
