package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrMissingEmployeeID is returned when a caller asks for readiness
	// or a report without naming an employee.
	ErrMissingEmployeeID = errors.New("missing employee id")

	// ErrNoConfidenceUpdate is returned when a validated contribution
	// produced no confidence movement (monthly cap reached or invalid
	// impact), so no points can follow.
	ErrNoConfidenceUpdate = errors.New("no confidence update applied")
)
