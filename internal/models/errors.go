package models

import "errors"

// Store errors shared by repositories and services
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)
