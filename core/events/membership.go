package events

import (
	"encoding/hex"

	"clubchain/core/types"
)

const (
	TypeMemberRegistered  = "membership.registered"
	TypeMemberDeactivated = "membership.deactivated"
	TypeMemberCredited    = "membership.credited"
)

type MemberRegistered struct {
	Member [32]byte
	Owner  [20]byte
	Role   string
}

func (MemberRegistered) EventType() string { return TypeMemberRegistered }

func (e MemberRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberRegistered,
		Attributes: map[string]string{
			"member": hex.EncodeToString(e.Member[:]),
			"owner":  formatIdentity(e.Owner[:]),
			"role":   e.Role,
		},
	}
}

type MemberDeactivated struct {
	Member    [32]byte
	Authority [20]byte
}

func (MemberDeactivated) EventType() string { return TypeMemberDeactivated }

func (e MemberDeactivated) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberDeactivated,
		Attributes: map[string]string{
			"member":    hex.EncodeToString(e.Member[:]),
			"authority": formatIdentity(e.Authority[:]),
		},
	}
}

type MemberCredited struct {
	Member [32]byte
	Owner  [20]byte
	Status string
	Points uint64
}

func (MemberCredited) EventType() string { return TypeMemberCredited }

func (e MemberCredited) Event() *types.Event {
	return &types.Event{
		Type: TypeMemberCredited,
		Attributes: map[string]string{
			"member": hex.EncodeToString(e.Member[:]),
			"owner":  formatIdentity(e.Owner[:]),
			"status": e.Status,
			"points": uintToString(e.Points),
		},
	}
}
