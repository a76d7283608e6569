package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")

	// Token/session related errors
	ErrUnauthorized = errors.New("unauthorized")

	// Plane integration errors
	ErrPlaneUnavailable = errors.New("plane integration unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
