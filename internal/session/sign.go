package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// hmacSHA256Hex computes the auth-frame signature:
// HMAC_SHA256(secret, "GET" + timestamp + "/live"), hex-lowercase.
func hmacSHA256Hex(secret, preHash string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(preHash))
	return hex.EncodeToString(mac.Sum(nil))
}
