package attendance

import (
	"errors"
	"math/big"
	"time"

	"clubchain/core/events"
	"clubchain/core/state"
	"clubchain/core/types"
	"clubchain/native/membership"
)

const dateLayout = "2006-01-02"

// engineState is the subset of state manager functionality the attendance
// engine needs.
type engineState interface {
	Get(addr state.Address, out interface{}) error
	Put(addr state.Address, record interface{}) error
	Create(addr state.Address, record interface{}) error
	Mint(owner []byte, amount *big.Int) error
	AppendEvent(evt *types.Event)
}

// Engine owns the session and attendance-record state machines. A session
// moves Created(active) -> Closed -> Reactivated(active); attendance records
// are created exactly once per (session, member) pair and never touched
// again. Every mutation is staged on the surrounding state overlay, so a
// failed check-in leaves no trace once the caller discards.
type Engine struct {
	state    engineState
	members  *membership.Ledger
	schedule Schedule
	nowFn    func() int64
}

// NewEngine constructs an attendance engine bound to the provided state and
// membership ledger.
func NewEngine(st engineState, members *membership.Ledger) *Engine {
	return &Engine{
		state:    st,
		members:  members,
		schedule: DefaultSchedule(),
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetSchedule overrides the points schedule.
func (e *Engine) SetSchedule(schedule Schedule) {
	e.schedule = schedule.Normalize()
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func canonicalDate(date string) (string, error) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", ErrInvalidDate
	}
	canonical := parsed.Format(dateLayout)
	if canonical != date {
		return "", ErrInvalidDate
	}
	return canonical, nil
}

// InitializeSession creates the session record for a calendar date. At most
// one session exists per date; the derived address enforces it.
func (e *Engine) InitializeSession(date string, startTime, lateTime uint64, authority [20]byte) (state.Address, error) {
	canonical, err := canonicalDate(date)
	if err != nil {
		return state.Address{}, err
	}
	if startTime >= lateTime {
		return state.Address{}, ErrInvalidTimeWindow
	}
	addr := state.SessionAddress(canonical)
	session := &Session{
		Authority: authority,
		Date:      canonical,
		StartTime: startTime,
		LateTime:  lateTime,
		IsActive:  true,
	}
	if err := e.state.Create(addr, session); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return state.Address{}, ErrSessionExists
		}
		return state.Address{}, err
	}
	e.state.AppendEvent(events.SessionInitialized{
		Session:   addr,
		Date:      canonical,
		StartTime: int64(startTime),
		LateTime:  int64(lateTime),
		Authority: authority,
	}.Event())
	return addr, nil
}

// GetSession loads the session record for a calendar date.
func (e *Engine) GetSession(date string) (*Session, error) {
	canonical, err := canonicalDate(date)
	if err != nil {
		return nil, err
	}
	session := new(Session)
	if err := e.state.Get(state.SessionAddress(canonical), session); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// SetActive flips the session's active flag. Only the creating authority may
// call it; requesting the current state is an idempotent no-op.
func (e *Engine) SetActive(date string, active bool, authority [20]byte) error {
	session, err := e.GetSession(date)
	if err != nil {
		return err
	}
	if session.Authority != authority {
		return ErrUnauthorized
	}
	if session.IsActive == active {
		return nil
	}
	session.IsActive = active
	addr := state.SessionAddress(session.Date)
	if err := e.state.Put(addr, session); err != nil {
		return err
	}
	e.state.AppendEvent(events.SessionStatusChanged{Session: addr, Active: active}.Event())
	return nil
}

// Reactivate reopens a closed session with a fresh time window. The counters
// keep accumulating across the reopened window.
func (e *Engine) Reactivate(date string, startTime, lateTime uint64, authority [20]byte) error {
	session, err := e.GetSession(date)
	if err != nil {
		return err
	}
	if session.Authority != authority {
		return ErrUnauthorized
	}
	if session.IsActive {
		return ErrSessionAlreadyActive
	}
	if startTime >= lateTime {
		return ErrInvalidTimeWindow
	}
	session.IsActive = true
	session.StartTime = startTime
	session.LateTime = lateTime
	addr := state.SessionAddress(session.Date)
	if err := e.state.Put(addr, session); err != nil {
		return err
	}
	e.state.AppendEvent(events.SessionReactivated{
		Session:   addr,
		StartTime: int64(startTime),
		LateTime:  int64(lateTime),
	}.Event())
	return nil
}

// CheckIn records the caller's attendance for the session on the given date.
// The record creation doubles as the double-check-in guard; on any failure
// the caller discards the staged state, so the record, the session counters,
// the member counters, and the minted points move as one atomic unit.
//
// now == StartTime classifies on time, now == LateTime classifies late and is
// still accepted, now > LateTime is rejected outright and leaves no trace.
func (e *Engine) CheckIn(date string, caller [20]byte) (state.Address, *Record, error) {
	session, err := e.GetSession(date)
	if err != nil {
		return state.Address{}, nil, err
	}
	if !session.IsActive {
		return state.Address{}, nil, ErrSessionNotActive
	}
	if _, err := e.members.Get(caller); err != nil {
		return state.Address{}, nil, err
	}
	now := e.nowFn()
	if now < 0 || uint64(now) > session.LateTime {
		return state.Address{}, nil, ErrCheckInTimePassed
	}
	status := StatusLate
	if uint64(now) <= session.StartTime {
		status = StatusOnTime
	}
	points := e.schedule.PointsFor(status)

	sessionAddr := state.SessionAddress(session.Date)
	recordAddr := state.AttendanceAddress(sessionAddr, caller[:])
	record := &Record{
		Session:      sessionAddr,
		Member:       caller,
		Status:       status,
		CheckInTime:  uint64(now),
		PointsEarned: points,
	}
	if err := e.state.Create(recordAddr, record); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return state.Address{}, nil, ErrAlreadyCheckedIn
		}
		return state.Address{}, nil, err
	}

	session.TotalAttendees++
	if status == StatusLate {
		session.TotalLate++
	}
	if err := e.state.Put(sessionAddr, session); err != nil {
		return state.Address{}, nil, err
	}
	if err := e.members.Credit(caller, status == StatusLate, points); err != nil {
		return state.Address{}, nil, err
	}
	if err := e.state.Mint(caller[:], new(big.Int).SetUint64(points)); err != nil {
		return state.Address{}, nil, err
	}
	e.state.AppendEvent(events.CheckedIn{
		Session:     sessionAddr,
		Record:      recordAddr,
		Member:      caller,
		Status:      status.String(),
		CheckInTime: now,
		Points:      points,
	}.Event())
	return recordAddr, record, nil
}

// GetRecord loads the attendance record for a (session date, member) pair.
func (e *Engine) GetRecord(date string, member [20]byte) (*Record, error) {
	canonical, err := canonicalDate(date)
	if err != nil {
		return nil, err
	}
	record := new(Record)
	addr := state.AttendanceAddress(state.SessionAddress(canonical), member[:])
	if err := e.state.Get(addr, record); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}
