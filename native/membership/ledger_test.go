package membership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clubchain/core/state"
	"clubchain/storage"
)

func identity(last byte) [20]byte {
	var id [20]byte
	id[19] = last
	return id
}

func newTestLedger(t *testing.T) (*Ledger, *state.Manager) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	return NewLedger(manager), manager
}

func TestRegisterCreatesMember(t *testing.T) {
	ledger, _ := newTestLedger(t)
	owner := identity(1)

	addr, err := ledger.Register(owner, RoleMember, identity(2))
	require.NoError(t, err)
	require.Equal(t, state.MemberAddress(owner[:]), addr)

	member, err := ledger.Get(owner)
	require.NoError(t, err)
	require.Equal(t, owner, member.Owner)
	require.Equal(t, RoleMember, member.Role)
	require.True(t, member.IsActive)
	require.Zero(t, member.TotalAttendance)
	require.Zero(t, member.TotalLate)
	require.Zero(t, member.TotalPoints)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	ledger, _ := newTestLedger(t)
	owner := identity(1)

	_, err := ledger.Register(owner, RoleMember, owner)
	require.NoError(t, err)
	_, err = ledger.Register(owner, RoleMember, owner)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	// Registering the same identity under a different role must still fail:
	// the derived address only depends on the owner.
	_, err = ledger.Register(owner, RoleAdmin, owner)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterAdminRequiresSelf(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Register(identity(1), RoleAdmin, identity(2))
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = ledger.Register(identity(1), RoleAdmin, identity(1))
	require.NoError(t, err)
}

func TestRegisterAdminAllowList(t *testing.T) {
	ledger, _ := newTestLedger(t)
	allowed := identity(1)
	ledger.SetAdminAllowList([][20]byte{allowed})

	_, err := ledger.Register(identity(2), RoleAdmin, identity(2))
	require.ErrorIs(t, err, ErrAdminNotAllowed)

	_, err = ledger.Register(allowed, RoleAdmin, allowed)
	require.NoError(t, err)

	// Plain members are never gated by the allow-list.
	_, err = ledger.Register(identity(3), RoleMember, identity(3))
	require.NoError(t, err)
}

func TestRegisterRejectsInvalidRole(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, err := ledger.Register(identity(1), Role(9), identity(1))
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestDeactivateRequiresAdmin(t *testing.T) {
	ledger, _ := newTestLedger(t)
	admin := identity(1)
	member := identity(2)
	outsider := identity(3)

	_, err := ledger.Register(admin, RoleAdmin, admin)
	require.NoError(t, err)
	_, err = ledger.Register(member, RoleMember, member)
	require.NoError(t, err)
	_, err = ledger.Register(outsider, RoleMember, outsider)
	require.NoError(t, err)

	require.ErrorIs(t, ledger.Deactivate(member, outsider), ErrUnauthorized)
	require.ErrorIs(t, ledger.Deactivate(member, identity(9)), ErrUnauthorized)

	require.NoError(t, ledger.Deactivate(member, admin))
	got, err := ledger.Get(member)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestCreditMovesExclusiveCounters(t *testing.T) {
	ledger, _ := newTestLedger(t)
	owner := identity(1)
	_, err := ledger.Register(owner, RoleMember, owner)
	require.NoError(t, err)

	require.NoError(t, ledger.Credit(owner, false, 10))
	require.NoError(t, ledger.Credit(owner, true, 5))

	member, err := ledger.Get(owner)
	require.NoError(t, err)
	require.Equal(t, uint64(1), member.TotalAttendance)
	require.Equal(t, uint64(1), member.TotalLate)
	require.Equal(t, uint64(15), member.TotalPoints)
	require.Zero(t, member.TotalAbsence)
}

func TestCreditUnknownMember(t *testing.T) {
	ledger, _ := newTestLedger(t)
	require.ErrorIs(t, ledger.Credit(identity(1), false, 10), ErrMemberNotFound)
}
