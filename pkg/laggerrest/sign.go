package laggerrest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// canonicalQuery renders query values as k=v pairs joined by & in insertion
// order, with %2C decoded back to a literal comma: the venue's signing
// convention does not percent-encode commas even though transport-layer
// encoding does. Callers pass an ordered slice of key/value pairs rather than
// url.Values because Go map iteration order is not insertion order.
type queryParam struct {
	Key, Value string
}

func canonicalQuery(params []queryParam) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		encoded := url.QueryEscape(p.Value)
		encoded = strings.ReplaceAll(encoded, "%2C", ",")
		parts = append(parts, p.Key+"="+encoded)
	}
	return strings.Join(parts, "&")
}

// preHashString builds the exact canonical string signed by the venue:
// METHOD || unix_seconds || path || ("?"+query if query else "") || (body if body else "").
func preHashString(method string, unixSeconds int64, path, query string, body []byte) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteString(strconv.FormatInt(unixSeconds, 10))
	b.WriteString(path)
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if len(body) > 0 {
		b.Write(body)
	}
	return b.String()
}

// sign returns the hex-lowercase HMAC-SHA256 of preHash under secret.
func sign(secret, preHash string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(preHash))
	return hex.EncodeToString(mac.Sum(nil))
}
