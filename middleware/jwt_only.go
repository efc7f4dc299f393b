package middleware

import (
	"net/http"

	"github.com/MrEthical07/rentalAuth/permission"
)

// RequireAuthenticated rejects requests that carry no principal.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return RequireRole(permission.Authenticated())
}
