package attendance

import "errors"

var (
	// ErrSessionExists is returned when a session already exists for the date.
	ErrSessionExists = errors.New("attendance: session already exists for date")
	// ErrSessionNotFound marks reads of dates with no session.
	ErrSessionNotFound = errors.New("attendance: session not found")
	// ErrInvalidDate marks dates outside the canonical YYYY-MM-DD form.
	ErrInvalidDate = errors.New("attendance: invalid session date")
	// ErrInvalidTimeWindow is returned when the on-time cutoff does not
	// precede the late cutoff.
	ErrInvalidTimeWindow = errors.New("attendance: start time must precede late time")
	// ErrUnauthorized marks session mutations by anyone but the creating
	// authority.
	ErrUnauthorized = errors.New("attendance: unauthorized")
	// ErrSessionAlreadyActive is returned when reactivating a session that
	// was never closed.
	ErrSessionAlreadyActive = errors.New("attendance: session already active")
	// ErrSessionNotActive is returned when checking in against a closed
	// session.
	ErrSessionNotActive = errors.New("attendance: session not active")
	// ErrCheckInTimePassed is returned when the check-in moment is past the
	// late cutoff. No record is created; the member simply has no receipt for
	// the session.
	ErrCheckInTimePassed = errors.New("attendance: check-in window has passed")
	// ErrAlreadyCheckedIn is returned when an attendance record already
	// exists for the (session, member) pair.
	ErrAlreadyCheckedIn = errors.New("attendance: already checked in")
	// ErrRecordNotFound marks reads of (session, member) pairs with no
	// attendance record.
	ErrRecordNotFound = errors.New("attendance: record not found")
)
