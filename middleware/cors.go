package middleware

import (
	"strings"

	"github.com/blutspende/logboard/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CreateCorsMiddleware allows every origin when authorization is off, otherwise only the
// comma separated PERMITTED_ORIGIN_URL list.
func CreateCorsMiddleware(config *config.Configuration) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = !config.Authorization
	corsConfig.AllowCredentials = config.Authorization

	if config.Authorization {
		origins := strings.Split(config.PermittedOrigin, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"accept",
		"origin",
		"Cache-Control",
		"Last-Event-ID",
		"X-Requested-With",
	}

	corsConfig.AllowMethods = []string{
		"GET",
		"POST",
		"DELETE",
	}

	return cors.New(corsConfig)
}
