package identity

import "time"

// Roles recognized by the admin guard.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered marketplace member. The user id doubles as
// the wallet account id.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials carry a login attempt. Login accepts an email or a phone
// number in the same field.
type Credentials struct {
	Login    string
	Password string
}

// RegisterInput captures data required to create a user.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}
