package domain

import "errors"

// Operator is the back-office user behind a request, as asserted by a
// verified bearer token. Operators are managed by the external auth service.
type Operator struct {
	ID    string
	Email string
	Role  Role
}

// Role represents an operator's access level.
type Role string

const (
	// RoleAdmin also maintains services and their commission records.
	RoleAdmin Role = "admin"

	// RoleOperator registers and edits transactions and groups.
	RoleOperator Role = "operator"

	// RoleViewer can only read and preview quotes.
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	return roleRank[r] > 0
}

// Allows reports whether r grants at least the access of min.
func (r Role) Allows(min Role) bool {
	return r.IsValid() && roleRank[r] >= roleRank[min]
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
