package events

import (
	"encoding/hex"
	"strconv"

	"clubchain/core/types"
)

const (
	TypeSessionInitialized   = "attendance.session_initialized"
	TypeSessionStatusChanged = "attendance.session_status_changed"
	TypeSessionReactivated   = "attendance.session_reactivated"
	TypeCheckedIn            = "attendance.checked_in"
)

type SessionInitialized struct {
	Session   [32]byte
	Date      string
	StartTime int64
	LateTime  int64
	Authority [20]byte
}

func (SessionInitialized) EventType() string { return TypeSessionInitialized }

func (e SessionInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionInitialized,
		Attributes: map[string]string{
			"session":   hex.EncodeToString(e.Session[:]),
			"date":      e.Date,
			"startTime": intToString(e.StartTime),
			"lateTime":  intToString(e.LateTime),
			"authority": formatIdentity(e.Authority[:]),
		},
	}
}

type SessionStatusChanged struct {
	Session [32]byte
	Active  bool
}

func (SessionStatusChanged) EventType() string { return TypeSessionStatusChanged }

func (e SessionStatusChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionStatusChanged,
		Attributes: map[string]string{
			"session": hex.EncodeToString(e.Session[:]),
			"active":  strconv.FormatBool(e.Active),
		},
	}
}

type SessionReactivated struct {
	Session   [32]byte
	StartTime int64
	LateTime  int64
}

func (SessionReactivated) EventType() string { return TypeSessionReactivated }

func (e SessionReactivated) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionReactivated,
		Attributes: map[string]string{
			"session":   hex.EncodeToString(e.Session[:]),
			"startTime": intToString(e.StartTime),
			"lateTime":  intToString(e.LateTime),
		},
	}
}

type CheckedIn struct {
	Session     [32]byte
	Record      [32]byte
	Member      [20]byte
	Status      string
	CheckInTime int64
	Points      uint64
}

func (CheckedIn) EventType() string { return TypeCheckedIn }

func (e CheckedIn) Event() *types.Event {
	return &types.Event{
		Type: TypeCheckedIn,
		Attributes: map[string]string{
			"session":     hex.EncodeToString(e.Session[:]),
			"record":      hex.EncodeToString(e.Record[:]),
			"member":      formatIdentity(e.Member[:]),
			"status":      e.Status,
			"checkInTime": intToString(e.CheckInTime),
			"points":      uintToString(e.Points),
		},
	}
}
