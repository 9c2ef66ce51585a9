package membership

import (
	"errors"
	"fmt"

	"clubchain/core/events"
	"clubchain/core/state"
	"clubchain/core/types"
)

// ledgerState is the subset of state manager functionality the membership
// ledger needs.
type ledgerState interface {
	Get(addr state.Address, out interface{}) error
	Put(addr state.Address, record interface{}) error
	Create(addr state.Address, record interface{}) error
	AppendEvent(evt *types.Event)
}

// Ledger owns every member record. Registration is create-once per identity;
// the counters are only moved through Credit, which the attendance engine
// invokes as part of a check-in.
type Ledger struct {
	state     ledgerState
	allowList map[[20]byte]struct{}
}

// NewLedger constructs a membership ledger bound to the provided state.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{state: st}
}

// SetAdminAllowList restricts admin self-registration to the listed
// identities. An empty list keeps the open first-to-call-wins behavior.
func (l *Ledger) SetAdminAllowList(identities [][20]byte) {
	if len(identities) == 0 {
		l.allowList = nil
		return
	}
	l.allowList = make(map[[20]byte]struct{}, len(identities))
	for _, id := range identities {
		l.allowList[id] = struct{}{}
	}
}

// Register creates the member record for the owner identity. Admin
// registration is self-service: the invoking authority must be the owner
// itself, and must appear in the allow-list when one is configured.
func (l *Ledger) Register(owner [20]byte, role Role, authority [20]byte) (state.Address, error) {
	if !role.Valid() {
		return state.Address{}, ErrInvalidRole
	}
	if role == RoleAdmin {
		if authority != owner {
			return state.Address{}, fmt.Errorf("%w: admins must register themselves", ErrUnauthorized)
		}
		if l.allowList != nil {
			if _, ok := l.allowList[owner]; !ok {
				return state.Address{}, ErrAdminNotAllowed
			}
		}
	}
	addr := state.MemberAddress(owner[:])
	member := &Member{Owner: owner, Role: role, IsActive: true}
	if err := l.state.Create(addr, member); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return state.Address{}, ErrAlreadyRegistered
		}
		return state.Address{}, err
	}
	l.state.AppendEvent(events.MemberRegistered{Member: addr, Owner: owner, Role: role.String()}.Event())
	return addr, nil
}

// Get loads the member record for the owner identity.
func (l *Ledger) Get(owner [20]byte) (*Member, error) {
	member := new(Member)
	if err := l.state.Get(state.MemberAddress(owner[:]), member); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// Deactivate flips the member's active flag off. Only a registered, active
// admin may invoke it.
func (l *Ledger) Deactivate(owner [20]byte, authority [20]byte) error {
	admin, err := l.Get(authority)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return fmt.Errorf("%w: authority is not a registered member", ErrUnauthorized)
		}
		return err
	}
	if admin.Role != RoleAdmin || !admin.IsActive {
		return fmt.Errorf("%w: authority is not an active admin", ErrUnauthorized)
	}
	member, err := l.Get(owner)
	if err != nil {
		return err
	}
	member.IsActive = false
	addr := state.MemberAddress(owner[:])
	if err := l.state.Put(addr, member); err != nil {
		return err
	}
	l.state.AppendEvent(events.MemberDeactivated{Member: addr, Authority: authority}.Event())
	return nil
}

// Credit moves the member's counters for a successful check-in. A late
// check-in bumps the late counter, an on-time one the attendance counter;
// points accumulate either way. Absences never reach this path since no
// attendance record is created for them.
func (l *Ledger) Credit(owner [20]byte, late bool, points uint64) error {
	member, err := l.Get(owner)
	if err != nil {
		return err
	}
	status := "on_time"
	if late {
		member.TotalLate++
		status = "late"
	} else {
		member.TotalAttendance++
	}
	member.TotalPoints += points
	addr := state.MemberAddress(owner[:])
	if err := l.state.Put(addr, member); err != nil {
		return err
	}
	l.state.AppendEvent(events.MemberCredited{Member: addr, Owner: owner, Status: status, Points: points}.Event())
	return nil
}
