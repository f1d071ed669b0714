package razorpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier("s3cr3t")

	// HMAC-SHA256 of "order_abc|pay_123" keyed with "s3cr3t".
	valid := "070ea2f5813be979e4d4dd50f9840717bb01adf600c92662f401086c6cabbf9a"
	assert.NoError(t, v.Verify("order_abc", "pay_123", valid))

	assert.ErrorIs(t, v.Verify("order_abc", "pay_123", "deadbeef"), ErrSignatureMismatch)
	assert.ErrorIs(t, v.Verify("order_abc", "pay_999", valid), ErrSignatureMismatch)
	assert.ErrorIs(t, v.Verify("order_xyz", "pay_123", valid), ErrSignatureMismatch)
	assert.ErrorIs(t, v.Verify("order_abc", "pay_123", ""), ErrSignatureMismatch)

	other := NewVerifier("different-secret")
	assert.ErrorIs(t, other.Verify("order_abc", "pay_123", valid), ErrSignatureMismatch)
}
