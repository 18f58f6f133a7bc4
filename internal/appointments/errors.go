package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment matches the id.
	ErrNotFound = errors.New("appointments: not found")

	// ErrMissingUser is returned when the owning user reference is empty.
	ErrMissingUser = errors.New("appointments: user_id is required")

	ErrInvalidKind    = errors.New("appointments: invalid type")
	ErrInvalidStatus  = errors.New("appointments: invalid status")
	ErrInvalidUrgency = errors.New("appointments: invalid urgency")
	ErrInvalidAge     = errors.New("appointments: patient_age must not be negative")
	ErrInvalidTime    = errors.New("appointments: unrecognized time of day")

	// ErrMissingAddress is returned for home visits without an address.
	ErrMissingAddress = errors.New("appointments: address is required for home visits")

	// ErrTelemedicineExtras is returned when a telemedicine record carries
	// home-visit only fields.
	ErrTelemedicineExtras = errors.New("appointments: telemedicine bookings take no services or urgency")

	// ErrInvalidTransition is returned when a status change would move backwards.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")
)
