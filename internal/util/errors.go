package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrTestNotFound           = errors.New("test not found")
	ErrTestNotPublished       = errors.New("test not published or not accessible")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrAttemptAlreadyFinished = errors.New("attempt already submitted")
	ErrInvalidAttemptStatus   = errors.New("invalid attempt status")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)
