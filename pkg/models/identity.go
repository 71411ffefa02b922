package models

import (
	"encoding/hex"
	"errors"
	"strings"
)

// IdentityHexLen is the length of a canonical identity: a 20 byte address in hex.
const IdentityHexLen = 40

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is a caller address in canonical form: lowercase hex, no 0x prefix.
type Identity string

// ParseIdentity accepts an address with or without a 0x prefix in any case
// and returns its canonical form.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != IdentityHexLen {
		return "", ErrInvalidIdentity
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrInvalidIdentity
	}
	return Identity(strings.ToLower(s)), nil
}

// MustIdentity is ParseIdentity for literals in tests and tooling.
func MustIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id Identity) String() string { return string(id) }

// Hex returns the identity with a 0x prefix.
func (id Identity) Hex() string { return "0x" + string(id) }

// Pair returns the two identities ordered so that {a,b} and {b,a} give the same result.
func Pair(a, b Identity) (lo, hi Identity) {
	if a > b {
		return b, a
	}
	return a, b
}
