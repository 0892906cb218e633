// VAPID sender identity: the asymmetric key pair and contact URI that
// authenticate this server to the browser vendors' push services.
package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ds124wfegd/pushService/internal/entity"
)

// Vendors reject VAPID tokens that claim validity beyond 24 hours.
const maxTokenLifetime = 24 * time.Hour

// Identity holds the sender key pair. Immutable for the process
// lifetime: rotating keys invalidates every outstanding subscription.
type Identity struct {
	subject    string
	publicKey  string
	privateKey string
	signingKey *ecdsa.PrivateKey
}

// New validates the configured key material and builds the identity.
// The private scalar must derive exactly the configured public point,
// otherwise signatures would never verify against the key clients
// subscribed with.
func New(subject, publicKey, privateKey string) (*Identity, error) {
	if subject == "" || publicKey == "" || privateKey == "" {
		return nil, fmt.Errorf("%w: subject, public key and private key are all required", entity.ErrConfiguration)
	}
	if !strings.HasPrefix(subject, "mailto:") && !strings.HasPrefix(subject, "https://") {
		return nil, fmt.Errorf("%w: subject must be a mailto: or https: URI", entity.ErrConfiguration)
	}

	signingKey, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	configured, err := entity.DecodeKey(publicKey)
	if err != nil || len(configured) != 65 {
		return nil, fmt.Errorf("%w: malformed public key", entity.ErrConfiguration)
	}
	derived := elliptic.Marshal(elliptic.P256(), signingKey.PublicKey.X, signingKey.PublicKey.Y)
	if string(derived) != string(configured) {
		return nil, fmt.Errorf("%w: public key does not match private key", entity.ErrConfiguration)
	}

	return &Identity{
		subject:    subject,
		publicKey:  publicKey,
		privateKey: privateKey,
		signingKey: signingKey,
	}, nil
}

// Sign produces the Authorization header value for a request to the
// given push service origin: an ES256 JWT bound to this identity, plus
// the sender public key. Pure function of identity, audience and time.
func (i *Identity) Sign(audience string, expiry time.Time) (string, error) {
	now := time.Now()
	if expiry.IsZero() || expiry.After(now.Add(maxTokenLifetime)) {
		expiry = now.Add(maxTokenLifetime / 2)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": audience,
		"exp": expiry.Unix(),
		"sub": i.subject,
	})
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign vapid token: %w", err)
	}
	return fmt.Sprintf("vapid t=%s, k=%s", signed, i.publicKey), nil
}

// Audience extracts the push service origin an endpoint belongs to,
// which is what the vendor expects in the token's aud claim.
func Audience(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("malformed endpoint %q", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

// PublicKey returns the application-server key clients subscribe with.
func (i *Identity) PublicKey() string { return i.publicKey }

// PrivateKey exposes the raw encoded scalar for the delivery library.
func (i *Identity) PrivateKey() string { return i.privateKey }

// Subject returns the configured contact URI.
func (i *Identity) Subject() string { return i.subject }

func parsePrivateKey(encoded string) (*ecdsa.PrivateKey, error) {
	raw, err := entity.DecodeKey(encoded)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: malformed private key", entity.ErrConfiguration)
	}

	d := new(big.Int).SetBytes(raw)
	curve := elliptic.P256()
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: private key outside curve order", entity.ErrConfiguration)
	}

	key := &ecdsa.PrivateKey{D: d}
	key.PublicKey.Curve = curve
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(raw)
	return key, nil
}
