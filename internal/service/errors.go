package service

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidState          = errors.New("invalid state")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrRequiresPasswordSetup = errors.New("password setup required")
)
