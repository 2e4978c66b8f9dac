package auth

import (
	"strings"
	"time"
)

// Role is the closed set of authorization roles an Account can hold.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

var roleDisplayNames = map[Role]string{
	RoleCustomer: "Customer",
	RoleStaff:    "Staff",
	RoleAdmin:    "Administrator",
}

var roleDescriptions = map[Role]string{
	RoleCustomer: "Customer with basic shopping permissions",
	RoleStaff:    "Staff member managing products and orders",
	RoleAdmin:    "Administrator with full permissions",
}

// Roles lists every valid role in a stable order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleStaff, RoleAdmin}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// DisplayName returns the human-readable name for the role.
func (r Role) DisplayName() string {
	return roleDisplayNames[r]
}

// Description returns the role description shown in the roles catalog.
func (r Role) Description() string {
	return roleDescriptions[r]
}

// ParseRole normalizes a role string. Unknown values yield ok=false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Account is the persisted identity record with credentials and role.
// PasswordHash never leaves this package boundary in serialized form.
type Account struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	FirstName         string    `json:"nombre"`
	LastName          string    `json:"apellidos"`
	Address           string    `json:"direccion,omitempty"`
	Phone             string    `json:"telefono,omitempty"`
	Role              Role      `json:"rol"`
	Active            bool      `json:"-"`
	EmailVerified     bool      `json:"emailVerificado"`
	VerificationToken string    `json:"-"`
	LastAccess        time.Time `json:"ultimoAcceso,omitempty"`
	CreatedAt         time.Time `json:"fechaRegistro,omitempty"`
}

// FullName joins the name parts for display.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Initials returns the first letter of each name part, upper-cased.
func (a *Account) Initials() string {
	var b strings.Builder
	for _, part := range []string{a.FirstName, a.LastName} {
		part = strings.TrimSpace(part)
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	return b.String()
}

// RegisterRequest carries the fields accepted at registration. Any role the
// caller supplies is ignored: new accounts are always customers.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Address   string
	Phone     string
}
