package app

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrTaskNotFound   = errors.New("task not found")
)
