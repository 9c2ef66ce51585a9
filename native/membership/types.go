package membership

// Role distinguishes plain members from organization admins. Roles are
// assigned at registration and never change afterwards.
type Role uint8

const (
	RoleMember Role = iota
	RoleAdmin
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	default:
		return "unknown"
	}
}

// Member is the on-ledger record for a registered identity. Exactly one
// member record exists per owner identity; the derived address enforces the
// uniqueness. Counters only ever grow and are mutated exclusively by the
// attendance check-in path.
type Member struct {
	Owner           [20]byte
	Role            Role
	TotalAttendance uint64
	TotalLate       uint64
	TotalAbsence    uint64
	TotalPoints     uint64
	IsActive        bool
}
