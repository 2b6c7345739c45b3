// Package keys implements the public key cryptography used by stakechain
// wallets.
//
// Every account is identified by the public half of a secp256k1 key-pair.
// The canonical string form of that public key, as returned by PublicKeyHex,
// is the only account identifier used by the ledger, the transaction pool and
// the chain. The private key never leaves the wallet that generated it; it is
// used to sign transactions and, for forging nodes, blocks.
//
// Signatures are ECDSA (r, s) pairs serialised by EncodeSignature as two
// base-36 integers separated by a pipe. Signatures are always computed over a
// SHA-256 digest, never over raw data.
package keys
