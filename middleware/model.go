package middleware

import (
	"github.com/golang-jwt/jwt/v4"
)

// UserToken holds the claims of a verified bearer token. Subjects are not required to be
// UUIDs, log submitters may be service accounts.
type UserToken struct {
	RealmAccess RealmAccess `json:"realm_access"`
	Email       string      `json:"email"`
	ClientID    string      `json:"azp"`
	Scopes      string      `json:"scope"`
	jwt.RegisteredClaims
}

type RealmAccess struct {
	Roles []UserRole `json:"roles"`
}

type UserRole string

const (
	Admin    UserRole = "admin"
	LogAdmin UserRole = "log_admin"
)

// LogDeletionRoles may delete log records.
var LogDeletionRoles = []UserRole{Admin, LogAdmin}

const userContextKey = "User"

func (s UserRole) ToString() string {
	return string(s)
}
