package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// hexPrefix marks the hex-encoded form of public keys and other binary
// identifiers.
const hexPrefix = "0X"

//EncodeToString returns the UPPERCASE string representation of hexBytes with
//the 0X prefix
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("%s%X", hexPrefix, hexBytes)
}

//DecodeFromString converts a hex string with 0X prefix to a byte slice. The
//prefix is matched case-insensitively.
func DecodeFromString(hexString string) ([]byte, error) {
	if len(hexString) < len(hexPrefix) ||
		!strings.EqualFold(hexString[:len(hexPrefix)], hexPrefix) {
		return nil, fmt.Errorf("missing %s prefix in %q", hexPrefix, hexString)
	}
	return hex.DecodeString(hexString[len(hexPrefix):])
}
