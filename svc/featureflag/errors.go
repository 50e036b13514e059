package featureflag

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence indicates a store invariant violation, such as an insert
	// that succeeded but could not be read back.
	ErrPersistence = errors.New("feature flag store invariant violated")

	// ErrNotification indicates that a flag change was committed but announcing it failed.
	ErrNotification = errors.New("feature flag change notification failed")
)

// NotificationError is returned together with the committed flag when the
// notifier fails. The store and cache effects of the operation are already applied.
type NotificationError struct {
	Code string
	Kind ChangeKind
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s of flag %q: %v", e.Kind, e.Code, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotification) match any NotificationError.
func (e *NotificationError) Is(target error) bool {
	return target == ErrNotification
}

// IsNotificationError reports whether err carries a NotificationError.
func IsNotificationError(err error) bool {
	return errors.Is(err, ErrNotification)
}
