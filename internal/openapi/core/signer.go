package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureVersion identifies the canonical-request layout below. Bump it
// if the signed fields ever change.
const SignatureVersion = "1.0"

// Signer computes request signatures from an app key pair.
type Signer struct {
	appKey    string
	appSecret string
}

// NewSigner creates a signer. Placeholder credentials are accepted; the
// backend rejects them, not the client.
func NewSigner(appKey, appSecret string) *Signer {
	return &Signer{appKey: appKey, appSecret: appSecret}
}

// Sign returns the hex HMAC-SHA256 signature for one request.
func (s *Signer) Sign(method, path string, query url.Values, timestamp, nonce string) string {
	payload := strings.Join([]string{
		strings.ToUpper(method),
		path,
		canonicalQuery(query),
		s.appKey,
		timestamp,
		nonce,
	}, "\n")

	mac := hmac.New(sha256.New, []byte(s.appSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery renders query parameters as key=value pairs joined by "&",
// sorted by key then value, without URL escaping. Both signer and verifier
// must agree on this form, so it avoids escaping ambiguity entirely.
func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "&")
}
