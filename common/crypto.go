package common

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Password2Hash returns the hex sha256 digest of the given password. The admin
// surface stores and compares digests only, never the raw password.
func Password2Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// ValidatePasswordAndHash compares a candidate password against a stored hex
// digest in constant time.
func ValidatePasswordAndHash(password string, hash string) bool {
	if hash == "" {
		return false
	}
	digest := Password2Hash(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) == 1
}
