package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrFlagNotFound indicates that the requested feature flag does not exist or was soft-deleted.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrFlagExists indicates that a live flag with the same code already exists.
	ErrFlagExists = errors.New("feature flag with this code already exists")

	// ErrInvalidFlag indicates that the provided flag parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrInvalidRule indicates an issue with the targeting rule configuration.
	ErrInvalidRule = errors.New("invalid feature targeting rule")

	// ErrUnknownRuleKind is returned when decoding a rule with an unrecognized discriminant.
	ErrUnknownRuleKind = errors.New("unknown targeting rule kind")
)
