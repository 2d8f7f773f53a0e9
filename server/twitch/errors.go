package twitch

import "errors"

var (
	ErrMissingCredentials = errors.New("client id or client secret not provided")
	ErrRequestFailed      = errors.New("request failed")
	ErrInvalidResponse    = errors.New("received invalid response from twitch api")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrInvalidToken       = errors.New("access token is invalid")
)
