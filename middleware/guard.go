package middleware

import (
	"log/slog"
	"net/http"

	rentalAuth "github.com/MrEthical07/rentalAuth"
)

// Authenticate runs the authentication filter on paths the engine guards.
// Requests on other paths, requests without a credential and requests whose
// credential fails validation all continue unauthenticated; authorization
// decisions are left to [RequireRole] and the handlers.
func Authenticate(engine *rentalAuth.Engine, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || !engine.Guards(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := engine.Authenticate(r.Context(), header)
			if err != nil {
				logger.Debug("credential rejected", "path", r.URL.Path, "reason", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(rentalAuth.WithPrincipal(r.Context(), p)))
		})
	}
}
