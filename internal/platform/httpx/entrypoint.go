package httpx

import "net/http"

// Default messages for the authentication entry point and access-denied responders.
const (
	DefaultUnauthenticatedMessage = "Full authentication is required to access this resource"
	DefaultForbiddenMessage       = "Access is denied"
)

// Unauthenticated writes a 401 envelope. An empty message selects the default text.
func Unauthenticated(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultUnauthenticatedMessage
	}
	Message(w, http.StatusUnauthorized, message)
}

// Forbidden writes a 403 envelope. An empty message selects the default text.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultForbiddenMessage
	}
	Message(w, http.StatusForbidden, message)
}
