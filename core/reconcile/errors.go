package reconcile

import "errors"

var (
	// ErrInvalidQuantity is returned when a quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInsufficientAvailability is returned when a check-out exceeds the available units.
	ErrInsufficientAvailability = errors.New("quantity exceeds available units")
	// ErrExceedsCapacity is returned when a check-in would push availability above capacity.
	ErrExceedsCapacity = errors.New("quantity exceeds checked out units")
	// ErrNoProject is returned when no project is selected.
	ErrNoProject = errors.New("no project selected")
	// ErrUnknownHardware is returned for hardware sets not in the current view.
	ErrUnknownHardware = errors.New("unknown hardware set")
	// ErrUnknownProject is returned for projects not in the current view.
	ErrUnknownProject = errors.New("unknown project")
	// ErrNoUser is returned when a membership change is attempted without a user.
	ErrNoUser = errors.New("no authenticated user")
	// ErrRowBusy is returned when a row already has a request in flight.
	ErrRowBusy = errors.New("a request for this row is already in flight")
	// ErrStaleConfirmation is returned when a confirmation is older than the last
	// applied one for its row, or belongs to a view that was reset since.
	ErrStaleConfirmation = errors.New("stale confirmation discarded")
	// ErrInvalidConfirmation is returned when the remote service reports values that
	// break 0 <= available <= capacity. Nothing is applied.
	ErrInvalidConfirmation = errors.New("confirmation violates hardware set bounds")
)

// IsValidation reports whether err is a local validation failure, raised before
// any request is sent.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientAvailability) ||
		errors.Is(err, ErrExceedsCapacity) ||
		errors.Is(err, ErrNoProject) ||
		errors.Is(err, ErrUnknownHardware) ||
		errors.Is(err, ErrUnknownProject) ||
		errors.Is(err, ErrNoUser)
}
