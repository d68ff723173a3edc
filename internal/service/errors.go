package service

import "errors"

var (
	ErrUnauthenticated    = errors.New("not signed in")
	ErrForbidden          = errors.New("only the tournament owner can do that")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)
