package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Catalog related errors
	ErrStationNotFound      = errors.New("station not found")
	ErrStationAlreadyExists = errors.New("station already exists")
	ErrTrainNotFound        = errors.New("train not found")
	ErrTrainAlreadyExists   = errors.New("train already exists")

	// Ticket related errors
	ErrTicketNotFound = errors.New("ticket not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
