// Package fingerprint derives the opaque identifier under which a client
// address is stored in the ban registry. Raw addresses never reach the
// store; only the digest does.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"strings"
)

var ErrInvalidAddress = errors.New("fingerprint: invalid client address")

// Hash returns the lowercase hex SHA-256 digest of a client IP address.
// The input is trimmed and validated before hashing so that "1.2.3.4" and
// " 1.2.3.4 " map to the same fingerprint and garbage never earns a key.
func Hash(rawAddress string) (string, error) {
	address := strings.TrimSpace(rawAddress)
	if address == "" {
		return "", ErrInvalidAddress
	}
	if net.ParseIP(address) == nil {
		return "", ErrInvalidAddress
	}
	sum := sha256.Sum256([]byte(address))
	return hex.EncodeToString(sum[:]), nil
}
