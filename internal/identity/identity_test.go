package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/pushService/internal/entity"
)

func generateKeys(t *testing.T) (publicKey, privateKey string) {
	t.Helper()
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	return publicKey, privateKey
}

func TestNew(t *testing.T) {
	publicKey, privateKey := generateKeys(t)
	otherPublic, _ := generateKeys(t)

	tests := []struct {
		name       string
		subject    string
		publicKey  string
		privateKey string
		wantErr    bool
	}{
		{
			name:       "valid mailto identity",
			subject:    "mailto:ops@example.com",
			publicKey:  publicKey,
			privateKey: privateKey,
		},
		{
			name:       "valid https identity",
			subject:    "https://example.com/contact",
			publicKey:  publicKey,
			privateKey: privateKey,
		},
		{
			name:       "missing subject",
			publicKey:  publicKey,
			privateKey: privateKey,
			wantErr:    true,
		},
		{
			name:       "bare email subject",
			subject:    "ops@example.com",
			publicKey:  publicKey,
			privateKey: privateKey,
			wantErr:    true,
		},
		{
			name:       "missing private key",
			subject:    "mailto:ops@example.com",
			publicKey:  publicKey,
			wantErr:    true,
		},
		{
			name:       "malformed private key",
			subject:    "mailto:ops@example.com",
			publicKey:  publicKey,
			privateKey: "bm90LWEta2V5",
			wantErr:    true,
		},
		{
			name:       "key pair mismatch",
			subject:    "mailto:ops@example.com",
			publicKey:  otherPublic,
			privateKey: privateKey,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := New(tt.subject, tt.publicKey, tt.privateKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.publicKey, id.PublicKey())
			assert.Equal(t, tt.subject, id.Subject())
		})
	}
}

func TestSign(t *testing.T) {
	publicKey, privateKey := generateKeys(t)
	id, err := New("mailto:ops@example.com", publicKey, privateKey)
	require.NoError(t, err)

	header, err := id.Sign("https://push.example.com", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(header, "vapid t="))

	// The header carries the token and the sender public key.
	parts := strings.SplitN(strings.TrimPrefix(header, "vapid t="), ", k=", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, publicKey, parts[1])

	// The token must verify against the sender's own public key.
	raw, err := entity.DecodeKey(publicKey)
	require.NoError(t, err)
	verifyKey := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1:33]),
		Y:     new(big.Int).SetBytes(raw[33:]),
	}
	token, err := jwt.Parse(parts[0], func(token *jwt.Token) (interface{}, error) {
		return verifyKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "https://push.example.com", claims["aud"])
	assert.Equal(t, "mailto:ops@example.com", claims["sub"])
}

func TestSignClampsExpiry(t *testing.T) {
	publicKey, privateKey := generateKeys(t)
	id, err := New("mailto:ops@example.com", publicKey, privateKey)
	require.NoError(t, err)

	// A zero or too-distant expiry must still yield a token the
	// vendor will accept, i.e. one bounded to 24 hours.
	for _, expiry := range []time.Time{{}, time.Now().Add(48 * time.Hour)} {
		header, err := id.Sign("https://push.example.com", expiry)
		require.NoError(t, err)

		parts := strings.SplitN(strings.TrimPrefix(header, "vapid t="), ", k=", 2)
		token, _, err := jwt.NewParser().ParseUnverified(parts[0], jwt.MapClaims{})
		require.NoError(t, err)

		exp, err := token.Claims.GetExpirationTime()
		require.NoError(t, err)
		assert.True(t, exp.Before(time.Now().Add(24*time.Hour+time.Minute)))
	}
}

func TestAudience(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		expected string
		wantErr  bool
	}{
		{
			name:     "fcm endpoint",
			endpoint: "https://fcm.googleapis.com/fcm/send/abc123",
			expected: "https://fcm.googleapis.com",
		},
		{
			name:     "mozilla endpoint",
			endpoint: "https://updates.push.services.mozilla.com/wpush/v2/xyz",
			expected: "https://updates.push.services.mozilla.com",
		},
		{
			name:     "no scheme",
			endpoint: "push.example.com/ch/1",
			wantErr:  true,
		},
		{
			name:     "empty",
			endpoint: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audience, err := Audience(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, audience)
		})
	}
}
