package ticketing

import "errors"

// Business-rule failures surfaced by the ticket operations. Controllers map
// each to its literal user-facing message.
var (
	ErrContactNotFound       = errors.New("contact not found")
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrCarriageNotFound      = errors.New("carriage not allocated on schedule")
	ErrSegmentNotServed      = errors.New("station pair not served by schedule")
	ErrSeatFull              = errors.New("no seats left for carriage type")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAlreadyPaid           = errors.New("ticket already paid")
	ErrScheduleChanged       = errors.New("schedule changed since booking")
	ErrOrderExpired          = errors.New("unpaid order expired")
	ErrInsufficientBalance   = errors.New("insufficient account balance")
	ErrNotChangeable         = errors.New("ticket not changeable")
	ErrNotOptionCompatible   = errors.New("schedules do not share termini")
	ErrDepartureTooLate      = errors.New("replacement departs too late")
	ErrNotCancelable         = errors.New("ticket not cancelable")
	ErrNotDeletable          = errors.New("ticket not deletable")
	ErrRefundAccountRequired = errors.New("refund account required")
)
