package domain

import "strings"

// Role es el rol cerrado de una cuenta.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleTechnician Role = "Technician"
	RoleCustomer   Role = "Customer"
	RoleHR         Role = "HR"
)

// DefaultRole es el rol asignado cuando el registro no indica uno.
const DefaultRole = RoleCustomer

var allRoles = []Role{RoleAdmin, RoleManager, RoleTechnician, RoleCustomer, RoleHR}

// ParseRole normaliza y valida un rol recibido como texto.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRole, true
	}
	for _, r := range allRoles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Valid indica si el rol pertenece al conjunto conocido.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Authorize decide si el usuario puede ejecutar una operacion que exige
// alguno de los roles indicados. Falla cerrado: sin usuario, usuario
// inactivo o conjunto de roles vacio siempre deniega.
func Authorize(user *User, required ...Role) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if len(required) == 0 {
		return false
	}
	for _, r := range required {
		if user.Role == r {
			return true
		}
	}
	return false
}
