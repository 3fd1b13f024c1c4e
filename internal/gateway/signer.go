package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Parameter names the gateway reserves for signatures. They are appended to
// outbound requests and stripped from inbound ones before verification.
const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
)

// Signer canonicalizes gateway parameters and produces HMAC-SHA512
// signatures over them with the merchant secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Canonicalize percent-encodes every key and value, sorts pairs by encoded
// key and joins them as key=value with & separators. The signature params
// never participate in their own input.
func (s *Signer) Canonicalize(params map[string]string) string {
	byEncodedKey := make(map[string]string, len(params))
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if key == paramSecureHash || key == paramSecureHashType {
			continue
		}
		encodedKey := url.QueryEscape(key)
		byEncodedKey[encodedKey] = url.QueryEscape(value)
		keys = append(keys, encodedKey)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+byEncodedKey[key])
	}
	return strings.Join(pairs, "&")
}

// Sign returns the hex HMAC-SHA512 digest of the canonical form.
func (s *Signer) Sign(params map[string]string) string {
	return s.SignRaw(s.Canonicalize(params))
}

// SignRaw signs an already-assembled string, used for the pipe-delimited
// refund request format.
func (s *Signer) SignRaw(data string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over the received parameters (minus the
// signature fields) and compares it to the presented one in constant time.
func (s *Signer) Verify(params map[string]string) bool {
	presented, ok := params[paramSecureHash]
	if !ok || presented == "" {
		return false
	}
	expected := s.Sign(params)
	return hmac.Equal([]byte(strings.ToLower(presented)), []byte(expected))
}
