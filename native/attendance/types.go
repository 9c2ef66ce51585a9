package attendance

import "clubchain/core/state"

// Status classifies a successful check-in against the session's time window.
// Absence is the absence of a record, never a stored status.
type Status uint8

const (
	StatusOnTime Status = iota
	StatusLate
)

func (s Status) String() string {
	switch s {
	case StatusOnTime:
		return "on_time"
	case StatusLate:
		return "late"
	default:
		return "unknown"
	}
}

// Session is the on-ledger record for one calendar date. The date is part of
// the derived address, so at most one session can ever exist per date. The
// window must satisfy StartTime < LateTime whenever the session is active.
type Session struct {
	Authority      [20]byte
	Date           string
	StartTime      uint64
	LateTime       uint64
	TotalAttendees uint64
	TotalLate      uint64
	IsActive       bool
}

// Record is the immutable attendance receipt for a (session, member) pair.
// Creation is its only mutation; a second check-in for the same pair fails
// against the already-populated derived address.
type Record struct {
	Session      state.Address
	Member       [20]byte
	Status       Status
	CheckInTime  uint64
	PointsEarned uint64
}
