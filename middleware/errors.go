package middleware

type ClientError struct {
	MessageKey string `json:"messageKey"`
	Message    string `json:"error"`
}

var (
	InvalidTokenResponse = ClientError{
		MessageKey: "invalidToken",
		Message:    "Invalid token",
	}
	ErrOpenIDConfiguration = ClientError{
		MessageKey: "oidcConfiguration",
		Message:    "OIDC .well-known/configuration could not be retrieved",
	}
	TokenExpiredResponse = ClientError{
		MessageKey: "tokenExpired",
		Message:    "Token expired",
	}
	ErrNoPrivileges = ClientError{
		MessageKey: "unauthorized",
		Message:    "Not authorized",
	}
)
