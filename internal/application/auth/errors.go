package auth

import "errors"

var (
	ErrInvalidToken = errors.New("Invalid or expired token")
	ErrRevokedToken = errors.New("Token has been revoked")
)
