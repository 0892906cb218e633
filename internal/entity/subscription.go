package entity

import (
	"encoding/base64"
	"strings"
)

// Subscription mirrors the JSON produced by PushSubscription.toJSON()
// in the browser: the vendor endpoint plus the client key material the
// push message is encrypted under.
type Subscription struct {
	Endpoint string           `json:"endpoint" binding:"required"`
	Keys     SubscriptionKeys `json:"keys" binding:"required"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

const p256PointLength = 65 // uncompressed P-256 point, 0x04 prefix

// Validate checks that the record can actually be delivered to: the
// endpoint is present and both key fields decode to usable material.
func (s *Subscription) Validate() error {
	if s.Endpoint == "" {
		return ErrInvalidSubscription
	}
	p256dh, err := DecodeKey(s.Keys.P256dh)
	if err != nil || len(p256dh) != p256PointLength || p256dh[0] != 0x04 {
		return ErrInvalidSubscription
	}
	auth, err := DecodeKey(s.Keys.Auth)
	if err != nil || len(auth) == 0 {
		return ErrInvalidSubscription
	}
	return nil
}

// DecodeKey decodes base64url key material, with or without padding.
// Browsers emit unpadded strings but stored records sometimes carry
// padded ones.
func DecodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, ErrInvalidSubscription
	}
	if strings.ContainsAny(value, "=") {
		return base64.URLEncoding.DecodeString(value)
	}
	return base64.RawURLEncoding.DecodeString(value)
}
