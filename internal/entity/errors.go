package entity

import "errors"

var (
	// Subscription errors
	ErrInvalidSubscription = errors.New("invalid subscription record")
	ErrNoSubscribers       = errors.New("no subscribers registered")

	// Delivery errors
	ErrPayloadTooLarge = errors.New("payload exceeds push service size limit")

	// Client-side errors
	ErrPermissionDenied    = errors.New("notification permission denied")
	ErrUnsupportedPlatform = errors.New("platform does not support push")

	// General errors
	ErrConfiguration = errors.New("invalid push configuration")
)
