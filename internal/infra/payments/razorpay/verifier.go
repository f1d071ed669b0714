package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrSignatureMismatch = errors.New("razorpay: signature mismatch")

// Verifier checks Razorpay checkout callback signatures:
// HMAC-SHA256 over "<order_id>|<payment_id>" keyed with the API secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Verify recomputes the signature and compares in constant time.
func (v Verifier) Verify(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
