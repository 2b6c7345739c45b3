package crypto

import (
	"crypto/ecdsa"

	"github.com/mosaicnetworks/stakechain/src/crypto/keys"
)

// SignPayload signs the SHA256 digest of payload's canonical encoding and
// returns the encoded signature.
func SignPayload(priv *ecdsa.PrivateKey, payload interface{}) (string, error) {
	digest, err := HashPayload(payload)
	if err != nil {
		return "", err
	}

	r, s, err := keys.Sign(priv, digest)
	if err != nil {
		return "", err
	}

	return keys.EncodeSignature(r, s), nil
}

// VerifySignature checks signature against payload and the public key given
// in its canonical string form. A well-formed signature that does not match
// returns false and no error; an error is only returned when the key or the
// signature cannot be decoded.
func VerifySignature(payload interface{}, signature string, pubKeyHex string) (bool, error) {
	pub, err := keys.ParsePublicKeyHex(pubKeyHex)
	if err != nil {
		return false, err
	}

	r, s, err := keys.DecodeSignature(signature)
	if err != nil {
		return false, err
	}

	digest, err := HashPayload(payload)
	if err != nil {
		return false, err
	}

	return keys.Verify(pub, digest, r, s), nil
}
