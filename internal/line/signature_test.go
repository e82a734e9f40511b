package line

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	// echo -n payload | openssl dgst -sha256 -hmac secret -binary | base64
	assert.Equal(t, "uC/LeRrOxXhZuYm0MKgmSIzi5Hn9+SMmvQoug3WkK6Q=", Sign("secret", []byte("payload")))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)

	tests := []struct {
		name      string
		signature string
		secret    string
		ok        bool
		err       error
	}{
		{name: "no secret", signature: "", secret: "", ok: true},
		{name: "blank secret", signature: PlaceholderSignature, secret: "  ", ok: true},
		{name: "valid", signature: Sign("s3cr3t", body), secret: "s3cr3t", ok: true},
		{name: "missing header", signature: "", secret: "s3cr3t", err: ErrMissingSignature},
		{name: "placeholder", signature: PlaceholderSignature, secret: "s3cr3t", err: ErrInvalidEncoding},
		{name: "wrong secret", signature: Sign("other", body), secret: "s3cr3t", err: ErrSignatureMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifySignature(body, tt.signature, tt.secret)
			assert.Equal(t, tt.ok, ok)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
		})
	}
}
