package minmax

import "errors"

// Sentinel errors for common error conditions
var (
	// Field-related errors
	ErrFieldNotFound = errors.New("field not found")
	ErrEmptyField    = errors.New("field has no values on any partition")
	ErrInvalidKind   = errors.New("invalid field kind")

	// Configuration errors
	ErrInvalidComponentIndex = errors.New("invalid component index")
	ErrInvalidMode           = errors.New("invalid mode")
	ErrUnknownFunction       = errors.New("unknown function type")
	ErrNoFields              = errors.New("no fields configured")

	// Collective/communication errors, fatal to the run
	ErrCollectiveMismatch  = errors.New("collective mismatch")
	ErrPartitionOutOfRange = errors.New("partition id out of range")

	// Version/compatibility errors
	ErrIncompatibleVersion = errors.New("incompatible version")

	// Coordinator errors
	ErrRunNotFound        = errors.New("run not found")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrRoundFailed        = errors.New("collective round failed")
)
