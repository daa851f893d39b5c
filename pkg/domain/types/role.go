package types

// Role identifies the speaker of a conversation message
type Role string

const (
	RoleClient   Role = "client"
	RoleSalesman Role = "salesman"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleSalesman:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// SessionID is a UUID-based identifier for a conversation session
type SessionID string

// String returns the string representation of SessionID
func (s SessionID) String() string {
	return string(s)
}
