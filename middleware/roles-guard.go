package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoleProtection - Checks if user has roles
//
// @var strict bool - if strict is true, the user must have all the roles
func RoleProtection(roles []UserRole, strict, authMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// For development, you can turn of the roleProtection
		if !authMode {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			log.Error().Msg(InvalidTokenResponse.Message)
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		if strict && containsAll(user.RealmAccess.Roles, roles) || !strict && containsAny(user.RealmAccess.Roles, roles) {
			c.Next()
			return
		}

		log.Warn().Str("user", user.Subject).Interface("roles", roles).Msg(ErrNoPrivileges.Message)
		c.AbortWithStatusJSON(http.StatusForbidden, ErrNoPrivileges)
	}
}

func contains[T comparable](set []T, target T) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == target {
			return true
		}
	}
	return false
}

func containsAny[T comparable](set []T, targets []T) bool {
	for i := 0; i < len(targets); i++ {
		if contains(set, targets[i]) {
			return true
		}
	}
	return false
}

func containsAll[T comparable](set []T, targets []T) bool {
	for i := 0; i < len(targets); i++ {
		if !contains(set, targets[i]) {
			return false
		}
	}
	return true
}
