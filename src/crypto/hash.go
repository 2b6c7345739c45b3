package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 returns the SHA256 hash of the data.
func SHA256(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write(data)
	hash := hasher.Sum(nil)
	return hash
}

// HashPayload returns the SHA256 digest of the canonical encoding of payload.
func HashPayload(payload interface{}) ([]byte, error) {
	data, err := Canonical(payload)
	if err != nil {
		return nil, err
	}
	return SHA256(data), nil
}

// HashPayloadHex is HashPayload rendered as lowercase hex.
func HashPayloadHex(payload interface{}) (string, error) {
	hash, err := HashPayload(payload)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash), nil
}
