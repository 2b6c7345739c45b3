package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// privateKeyLen is the length in bytes of a serialized secp256k1 private key.
const privateKeyLen = btcec.PrivKeyBytesLen

//GenerateECDSAKey creates a new account key. The same key signs the
//transactions of the account and, on a forger, the blocks it forges.
func GenerateECDSAKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(Curve(), rand.Reader)
}

//DumpPrivateKey returns the 32-byte big-endian scalar of a key, as stored in
//the key file.
func DumpPrivateKey(priv *ecdsa.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return (*btcec.PrivateKey)(priv).Serialize()
}

//ParsePrivateKey is the inverse of DumpPrivateKey. It rejects scalars that are
//not in [1, N-1].
func ParsePrivateKey(d []byte) (*ecdsa.PrivateKey, error) {
	if len(d) != privateKeyLen {
		return nil, fmt.Errorf("invalid private key length %d, need %d bytes", len(d), privateKeyLen)
	}

	scalar := new(big.Int).SetBytes(d)
	if scalar.Sign() <= 0 {
		return nil, fmt.Errorf("invalid private key, zero")
	}
	if scalar.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("invalid private key, >=N")
	}

	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), d)
	return priv.ToECDSA(), nil
}

//PrivateKeyHex is the key file encoding of a key.
func PrivateKeyHex(key *ecdsa.PrivateKey) string {
	return hex.EncodeToString(DumpPrivateKey(key))
}
