package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"

	"github.com/mosaicnetworks/stakechain/src/common"
)

// ErrMalformedPublicKey is returned when a public-key string does not decode
// to a point on the curve.
var ErrMalformedPublicKey = errors.New("malformed public key")

// ToPublicKey is a wrapper around elliptic.Unmarshal which calls Curve() to
// determine which elliptic.Curve to use. The argument pub is expected to be the
// uncompressed form of a point on the curve, as returned by FromPublicKey.
func ToPublicKey(pub []byte) *ecdsa.PublicKey {
	if len(pub) == 0 {
		return nil
	}
	x, y := elliptic.Unmarshal(Curve(), pub)
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: Curve(), X: x, Y: y}
}

// FromPublicKey is a wrapper around elliptic.Marshal which calls Curve() to
// determine which elliptic.Curve to use. It outputs the point in uncompressed
// form.
func FromPublicKey(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(Curve(), pub.X, pub.Y)
}

// PublicKeyHex returns the hexadecimal reprentation of the uncompressed form of
// the public key. This is the canonical account identifier.
func PublicKeyHex(pub *ecdsa.PublicKey) string {
	return common.EncodeToString(FromPublicKey(pub))
}

// ParsePublicKeyHex is the inverse of PublicKeyHex.
func ParsePublicKeyHex(pubHex string) (*ecdsa.PublicKey, error) {
	pubBytes, err := common.DecodeFromString(pubHex)
	if err != nil {
		return nil, ErrMalformedPublicKey
	}
	pub := ToPublicKey(pubBytes)
	if pub == nil {
		return nil, ErrMalformedPublicKey
	}
	return pub, nil
}

// PublicKeyID gives a short uint32 representation of the public key, used to
// tag log lines. There is obviously a risk of collision here.
func PublicKeyID(pub *ecdsa.PublicKey) uint32 {
	return common.Hash32(FromPublicKey(pub))
}
