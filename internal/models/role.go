package models

import "fmt"

// Role is the closed set of account kinds. Every switch over Role must handle
// all three values and treat anything else as a programming error.
type Role string

const (
	RoleParent      Role = "PARENT"
	RoleChild       Role = "CHILD"
	RoleIndependent Role = "INDEPENDENT"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleParent, RoleChild, RoleIndependent:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsSubject reports whether accounts of this role are evaluated themselves.
func (r Role) IsSubject() bool {
	switch r {
	case RoleChild, RoleIndependent:
		return true
	case RoleParent:
		return false
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
