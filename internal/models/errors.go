package models

import "errors"

var (
	ErrAdvisoryUnavailable = errors.New("advisory unavailable")
	ErrQuoteUnavailable    = errors.New("quote unavailable")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrSuperseded          = errors.New("superseded by a newer request")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidSubmission   = errors.New("invalid submission")
)
