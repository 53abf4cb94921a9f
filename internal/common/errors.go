// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Prediction errors.
	ErrModelNotLoaded = errors.New("model is not loaded")

	// Report errors.
	ErrNoData          = errors.New("no predicted records to report on")
	ErrSynthesisFailed = errors.New("report synthesis failed")
)
