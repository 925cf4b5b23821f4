package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blutspende/logboard/authmanager"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// CheckAuth - Token Validator for api requests
func CheckAuth(authManager authmanager.AuthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		token := strings.Split(authHeader, "Bearer ")

		if len(token) < 2 || token[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		jwks, err := authManager.GetJWKS()
		if err != nil {
			log.Error().Err(err).Msg(ErrOpenIDConfiguration.Message)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrOpenIDConfiguration)
			return
		}

		userToken := UserToken{}
		_, err = jwt.ParseWithClaims(token[1], &userToken, jwks.Keyfunc)
		if err != nil {
			var validationError *jwt.ValidationError
			if errors.As(err, &validationError) && validationError.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
				return
			}
			log.Debug().Err(err).Msg(InvalidTokenResponse.Message)
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		if !userToken.VerifyExpiresAt(time.Now(), true) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
			return
		}

		c.Set(userContextKey, userToken)
		c.Next()
	}
}

// CurrentUser returns the claims CheckAuth stored for the request.
func CurrentUser(c *gin.Context) (UserToken, bool) {
	userObj, ok := c.Get(userContextKey)
	if !ok {
		return UserToken{}, false
	}
	user, ok := userObj.(UserToken)
	return user, ok
}
