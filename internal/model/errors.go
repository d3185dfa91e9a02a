package model

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrConnection     = errors.New("database connection error")
	ErrPersistence    = errors.New("database persistence error")
)
