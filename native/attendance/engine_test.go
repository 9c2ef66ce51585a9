package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clubchain/core/state"
	"clubchain/native/membership"
	"clubchain/storage"
)

const sessionDate = "2024-07-30"

func identity(last byte) [20]byte {
	var id [20]byte
	id[19] = last
	return id
}

func unixAt(hour, minute int) int64 {
	return time.Date(2024, 7, 30, hour, minute, 0, 0, time.UTC).Unix()
}

type fixture struct {
	engine  *Engine
	members *membership.Ledger
	manager *state.Manager
	admin   [20]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	members := membership.NewLedger(manager)
	engine := NewEngine(manager, members)
	admin := identity(0xaa)
	_, err := members.Register(admin, membership.RoleAdmin, admin)
	require.NoError(t, err)
	return &fixture{engine: engine, members: members, manager: manager, admin: admin}
}

func (f *fixture) registerMember(t *testing.T, owner [20]byte) {
	t.Helper()
	_, err := f.members.Register(owner, membership.RoleMember, owner)
	require.NoError(t, err)
}

// initSession creates the canonical test session: on-time until 19:30, late
// until 20:00.
func (f *fixture) initSession(t *testing.T) state.Address {
	t.Helper()
	addr, err := f.engine.InitializeSession(sessionDate, uint64(unixAt(19, 30)), uint64(unixAt(20, 0)), f.admin)
	require.NoError(t, err)
	return addr
}

func (f *fixture) checkInAt(t *testing.T, member [20]byte, hour, minute int) (*Record, error) {
	t.Helper()
	f.engine.SetNowFunc(func() int64 { return unixAt(hour, minute) })
	_, record, err := f.engine.CheckIn(sessionDate, member)
	return record, err
}

func TestInitializeSession(t *testing.T) {
	f := newFixture(t)
	addr := f.initSession(t)
	require.Equal(t, state.SessionAddress(sessionDate), addr)

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.True(t, session.IsActive)
	require.Equal(t, f.admin, session.Authority)
	require.Zero(t, session.TotalAttendees)
	require.Zero(t, session.TotalLate)
}

func TestInitializeSessionRejectsDuplicateDate(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	_, err := f.engine.InitializeSession(sessionDate, uint64(unixAt(9, 0)), uint64(unixAt(10, 0)), f.admin)
	require.ErrorIs(t, err, ErrSessionExists)
}

func TestInitializeSessionRejectsInvalidWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.InitializeSession(sessionDate, uint64(unixAt(20, 0)), uint64(unixAt(19, 30)), f.admin)
	require.ErrorIs(t, err, ErrInvalidTimeWindow)
	_, err = f.engine.InitializeSession(sessionDate, uint64(unixAt(20, 0)), uint64(unixAt(20, 0)), f.admin)
	require.ErrorIs(t, err, ErrInvalidTimeWindow)
}

func TestInitializeSessionRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)
	for _, date := range []string{"2024-7-30", "30-07-2024", "2024-07-30T00:00", "not-a-date"} {
		_, err := f.engine.InitializeSession(date, uint64(unixAt(19, 30)), uint64(unixAt(20, 0)), f.admin)
		require.ErrorIs(t, err, ErrInvalidDate, date)
	}
}

func TestSetActiveAuthorityGate(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)

	require.ErrorIs(t, f.engine.SetActive(sessionDate, false, identity(0xbb)), ErrUnauthorized)
	require.NoError(t, f.engine.SetActive(sessionDate, false, f.admin))

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.False(t, session.IsActive)

	// Requesting the current state is an idempotent no-op.
	require.NoError(t, f.engine.SetActive(sessionDate, false, f.admin))
}

func TestReactivateRequiresClosedSession(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)

	err := f.engine.Reactivate(sessionDate, uint64(unixAt(21, 0)), uint64(unixAt(21, 30)), f.admin)
	require.ErrorIs(t, err, ErrSessionAlreadyActive)

	require.NoError(t, f.engine.SetActive(sessionDate, false, f.admin))
	err = f.engine.Reactivate(sessionDate, uint64(unixAt(21, 30)), uint64(unixAt(21, 0)), f.admin)
	require.ErrorIs(t, err, ErrInvalidTimeWindow)
	err = f.engine.Reactivate(sessionDate, uint64(unixAt(21, 0)), uint64(unixAt(21, 30)), identity(0xbb))
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.engine.Reactivate(sessionDate, uint64(unixAt(21, 0)), uint64(unixAt(21, 30)), f.admin))
	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.True(t, session.IsActive)
	require.Equal(t, uint64(unixAt(21, 0)), session.StartTime)
	require.Equal(t, uint64(unixAt(21, 30)), session.LateTime)
}

func TestReactivateKeepsCounters(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	member := identity(1)
	f.registerMember(t, member)

	_, err := f.checkInAt(t, member, 19, 0)
	require.NoError(t, err)

	require.NoError(t, f.engine.SetActive(sessionDate, false, f.admin))
	require.NoError(t, f.engine.Reactivate(sessionDate, uint64(unixAt(21, 0)), uint64(unixAt(21, 30)), f.admin))

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.TotalAttendees)
}

func TestCheckInOnTime(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	member := identity(1)
	f.registerMember(t, member)

	record, err := f.checkInAt(t, member, 19, 0)
	require.NoError(t, err)
	require.Equal(t, StatusOnTime, record.Status)
	require.Equal(t, uint64(defaultOnTimePoints), record.PointsEarned)

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.TotalAttendees)
	require.Zero(t, session.TotalLate)

	got, err := f.members.Get(member)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.TotalAttendance)
	require.Equal(t, uint64(defaultOnTimePoints), got.TotalPoints)

	account, err := f.manager.GetAccount(member[:])
	require.NoError(t, err)
	require.Equal(t, int64(defaultOnTimePoints), account.BalancePTS.Int64())
}

func TestCheckInLate(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	member := identity(2)
	f.registerMember(t, member)

	record, err := f.checkInAt(t, member, 19, 45)
	require.NoError(t, err)
	require.Equal(t, StatusLate, record.Status)
	require.Equal(t, uint64(defaultLatePoints), record.PointsEarned)

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.TotalAttendees)
	require.Equal(t, uint64(1), session.TotalLate)

	got, err := f.members.Get(member)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.TotalLate)
	require.Zero(t, got.TotalAttendance)
}

func TestCheckInBoundaries(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)

	early := identity(1)
	f.registerMember(t, early)
	record, err := f.checkInAt(t, early, 19, 30)
	require.NoError(t, err)
	require.Equal(t, StatusOnTime, record.Status, "now == startTime is on time")

	boundary := identity(2)
	f.registerMember(t, boundary)
	record, err = f.checkInAt(t, boundary, 20, 0)
	require.NoError(t, err)
	require.Equal(t, StatusLate, record.Status, "now == lateTime is late but accepted")

	past := identity(3)
	f.registerMember(t, past)
	_, err = f.checkInAt(t, past, 20, 1)
	require.ErrorIs(t, err, ErrCheckInTimePassed)
	_, err = f.engine.GetRecord(sessionDate, past)
	require.ErrorIs(t, err, ErrRecordNotFound, "a rejected check-in leaves no trace")
}

func TestCheckInRejectsClosedSession(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	member := identity(1)
	f.registerMember(t, member)
	require.NoError(t, f.engine.SetActive(sessionDate, false, f.admin))

	_, err := f.checkInAt(t, member, 19, 0)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestCheckInRequiresRegisteredMember(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)

	_, err := f.checkInAt(t, identity(7), 19, 0)
	require.ErrorIs(t, err, membership.ErrMemberNotFound)
}

func TestDoubleCheckInFailsAndLeavesCountersUntouched(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	member := identity(1)
	f.registerMember(t, member)

	_, err := f.checkInAt(t, member, 19, 0)
	require.NoError(t, err)
	_, err = f.manager.Commit()
	require.NoError(t, err)

	_, err = f.checkInAt(t, member, 19, 45)
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
	f.manager.Discard()

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.Equal(t, uint64(1), session.TotalAttendees)
	require.Zero(t, session.TotalLate)

	got, err := f.members.Get(member)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.TotalAttendance)
	require.Zero(t, got.TotalLate)
	require.Equal(t, uint64(defaultOnTimePoints), got.TotalPoints)
}

func TestCheckInIndependentOfCallOrder(t *testing.T) {
	f := newFixture(t)
	f.initSession(t)
	first := identity(1)
	second := identity(2)
	f.registerMember(t, first)
	f.registerMember(t, second)

	// The late member checks in before the on-time one; classification only
	// depends on each member's own clock reading.
	record, err := f.checkInAt(t, second, 19, 45)
	require.NoError(t, err)
	require.Equal(t, StatusLate, record.Status)

	record, err = f.checkInAt(t, first, 19, 10)
	require.NoError(t, err)
	require.Equal(t, StatusOnTime, record.Status)

	session, err := f.engine.GetSession(sessionDate)
	require.NoError(t, err)
	require.Equal(t, uint64(2), session.TotalAttendees)
	require.Equal(t, uint64(1), session.TotalLate)
}

func TestScheduleNormalize(t *testing.T) {
	schedule := Schedule{}.Normalize()
	require.Equal(t, uint64(defaultOnTimePoints), schedule.OnTimePoints)
	require.Equal(t, uint64(defaultLatePoints), schedule.LatePoints)

	custom := Schedule{OnTimePoints: 20, LatePoints: 8}.Normalize()
	require.Equal(t, uint64(20), custom.OnTimePoints)
	require.Equal(t, uint64(8), custom.LatePoints)
}
