package membership

import "errors"

var (
	// ErrAlreadyRegistered is returned when a member record already exists
	// for the owner identity. Double registration is an error the caller must
	// handle, never a silent no-op.
	ErrAlreadyRegistered = errors.New("membership: member already registered")
	// ErrMemberNotFound marks reads of identities with no member record.
	ErrMemberNotFound = errors.New("membership: member not found")
	// ErrInvalidRole marks registration attempts with an undefined role.
	ErrInvalidRole = errors.New("membership: invalid role")
	// ErrUnauthorized marks mutations attempted by an identity lacking the
	// required authority.
	ErrUnauthorized = errors.New("membership: unauthorized")
	// ErrAdminNotAllowed marks admin registrations for identities outside the
	// configured allow-list.
	ErrAdminNotAllowed = errors.New("membership: admin identity not in allow-list")
)
