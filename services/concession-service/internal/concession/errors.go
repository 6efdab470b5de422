package concession

import "errors"

var (
	ErrDetailNotFound  = errors.New("details not found")
	ErrRequestNotFound = errors.New("request not found")
)
