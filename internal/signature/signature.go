// Package signature signs and verifies webhook payloads in the
// "sha256=<hex hmac>" form used by X-Hub-Signature-256.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Header is the request header carrying the signature.
const Header = "X-Hub-Signature-256"

const prefix = "sha256="

// Sign returns the signature of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is a valid signature of body under secret.
// The comparison runs in constant time.
func Verify(secret, body []byte, sig string) bool {
	hexSum, ok := strings.CutPrefix(sig, prefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(hexSum)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
