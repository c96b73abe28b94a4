package models

import "strings"

// Role identifies which account table a user lives in.
type Role string

const (
	RoleDoctor        Role = "doctor"
	RolePatient       Role = "patient"
	RoleReceptionist  Role = "receptionist"
	RoleLabTechnician Role = "lab_technician"
	// RoleAdmin is never stored; it is granted by the shared admin key.
	RoleAdmin Role = "admin"
)

// AccountRoles lists the roles that can register and log in.
var AccountRoles = []Role{RoleDoctor, RolePatient, RoleReceptionist, RoleLabTechnician}

// ParseRole accepts both the stored form and the URL form ("lab-technician").
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range AccountRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// IDPrefix is the human-readable prefix of verified account ids.
func (r Role) IDPrefix() string {
	switch r {
	case RoleDoctor:
		return "D"
	case RolePatient:
		return "P"
	case RoleReceptionist:
		return "R"
	case RoleLabTechnician:
		return "LT"
	}
	return ""
}
