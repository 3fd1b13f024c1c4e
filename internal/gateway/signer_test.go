package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "TESTSECRET123"

func fixtureParams() map[string]string {
	return map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    "TESTTMN",
		"vnp_Amount":     "100000000",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     "7e57b00c-0000-4000-8000-000000000042_1750000000000",
		"vnp_OrderInfo":  "Thanh toan don hang 42",
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  "https://example.com/payment/return",
		"vnp_IpAddr":     "127.0.0.1",
		"vnp_CreateDate": "20260615083000",
	}
}

func TestCanonicalize(t *testing.T) {
	signer := NewSigner(testSecret)

	want := "vnp_Amount=100000000&vnp_Command=pay&vnp_CreateDate=20260615083000&vnp_CurrCode=VND&vnp_IpAddr=127.0.0.1&vnp_Locale=vn&vnp_OrderInfo=Thanh+toan+don+hang+42&vnp_OrderType=other&vnp_ReturnUrl=https%3A%2F%2Fexample.com%2Fpayment%2Freturn&vnp_TmnCode=TESTTMN&vnp_TxnRef=7e57b00c-0000-4000-8000-000000000042_1750000000000&vnp_Version=2.1.0"
	assert.Equal(t, want, signer.Canonicalize(fixtureParams()))
}

func TestCanonicalizeSortsByKeyNotByPair(t *testing.T) {
	// A key that is a strict prefix of another must sort before it even
	// when its value would place the joined pair after the longer key's.
	signer := NewSigner(testSecret)
	params := map[string]string{
		"vnp_Param":  "z",
		"vnp_Param2": "abc",
	}

	assert.Equal(t, "vnp_Param=z&vnp_Param2=abc", signer.Canonicalize(params))
}

func TestCanonicalizeExcludesSignatureParams(t *testing.T) {
	signer := NewSigner(testSecret)
	params := map[string]string{
		"vnp_TmnCode":        "TESTTMN",
		"vnp_SecureHash":     "deadbeef",
		"vnp_SecureHashType": "HmacSHA512",
	}
	assert.Equal(t, "vnp_TmnCode=TESTTMN", signer.Canonicalize(params))
}

// Reference digest computed independently of this package with
// `hmac.new(secret, canonical, sha512)`.
const referenceSignature = "df58872a8c88c35f0d67914d0545ae130b8268e58014918e272738d29a0283c5149a8b122e5eaa3ce97d4eafcf534a046242801d78f9c175ba8065475112069b"

func TestSignMatchesReferenceDigest(t *testing.T) {
	signer := NewSigner(testSecret)
	assert.Equal(t, referenceSignature, signer.Sign(fixtureParams()))
}

func TestVerifyRoundTrip(t *testing.T) {
	signer := NewSigner(testSecret)

	params := fixtureParams()
	params["vnp_SecureHash"] = signer.Sign(params)
	assert.True(t, signer.Verify(params))
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := NewSigner(testSecret)

	params := fixtureParams()
	params["vnp_SecureHash"] = signer.Sign(params)
	require.True(t, signer.Verify(params))

	params["vnp_Amount"] = "200000000"
	assert.False(t, signer.Verify(params))
}

func TestVerifyRejectsMissingOrWrongSignature(t *testing.T) {
	signer := NewSigner(testSecret)

	params := fixtureParams()
	assert.False(t, signer.Verify(params), "no signature present")

	params["vnp_SecureHash"] = "0000"
	assert.False(t, signer.Verify(params))
}

func TestVerifyIgnoresSecureHashType(t *testing.T) {
	signer := NewSigner(testSecret)

	params := fixtureParams()
	params["vnp_SecureHash"] = signer.Sign(params)
	params["vnp_SecureHashType"] = "HmacSHA512"
	assert.True(t, signer.Verify(params))
}

func TestVerifyWrongSecretFails(t *testing.T) {
	signer := NewSigner(testSecret)
	other := NewSigner("ANOTHERSECRET")

	params := fixtureParams()
	params["vnp_SecureHash"] = signer.Sign(params)
	assert.False(t, other.Verify(params))
}

// Refund requests sign a pipe-delimited string in fixed field order instead
// of the sorted query form.
func TestSignRawRefundString(t *testing.T) {
	signer := NewSigner(testSecret)

	signData := "req-1|2.1.0|refund|TESTTMN|02|abc_1|100000||20260615083000|system|20260615083000|127.0.0.1|Refund test"
	want := "e0bd14c166f4b8f4976b564ad19ac9ae2a0f174dc09f15caf94fcdc7fc7baf0726bdde602d9ed87b125c5c8b1062a491299c16283ba703ddd1f05d57562928ab"
	assert.Equal(t, want, signer.SignRaw(signData))
}
