package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/metrics/export/prometheus"
	"github.com/MrEthical07/rentalAuth/middleware"
	"github.com/MrEthical07/rentalAuth/permission"
)

// ResultCodeHeader carries the numeric outcome of a rejected request.
const ResultCodeHeader = "api-result-code"

// AdminSecretHeader carries the shared secret of admin force-expire calls.
const AdminSecretHeader = "X-Admin-Secret"

const maxBodyBytes = 1 << 16

type handler struct {
	engine *rentalAuth.Engine
	logger *slog.Logger
}

// NewHandler returns the routed API with the authentication filter applied.
func NewHandler(engine *rentalAuth.Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{engine: engine, logger: logger.With("component", "httpapi")}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/reissue", h.reissue)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.Handle("GET /auth/me", middleware.RequireAuthenticated()(http.HandlerFunc(h.me)))
	mux.HandleFunc("POST /admin/members/{uid}/force-expire", h.adminForceExpire)
	mux.Handle("GET /admin/force-expired", middleware.RequireRole(permission.HasRole(permission.RoleAdmin))(http.HandlerFunc(h.listForceExpired)))
	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(engine).Handler())

	return middleware.Authenticate(engine, logger)(mux)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type reissueRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type principalResponse struct {
	MemberUID int64    `json:"memberUid"`
	Subject   string   `json:"subject"`
	Roles     []string `json:"roles"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.engine.Login(r.Context(), req.Identifier, req.Password)
	var locked *rentalAuth.LockedError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pair)
	case errors.As(err, &locked):
		w.Header().Set(ResultCodeHeader, "2")
		writeJSON(w, http.StatusOK, locked.Lock)
	case errors.Is(err, rentalAuth.ErrInvalidCredentials):
		rejected(w, 1)
	case errors.Is(err, rentalAuth.ErrLoginThrottled):
		w.Header().Set("Retry-After", strconv.Itoa(int(h.engine.ThrottleWindow().Seconds())))
		http.Error(w, "too many failed logins", http.StatusTooManyRequests)
	default:
		h.serverError(w, r, err)
	}
}

func (h *handler) reissue(w http.ResponseWriter, r *http.Request) {
	var req reissueRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.engine.Reissue(r.Context(), r.Header.Get("Authorization"), req.RefreshToken)
	if err == nil {
		writeJSON(w, http.StatusOK, pair)
		return
	}
	if code := rentalAuth.ReissueCode(err); code != 0 {
		rejected(w, code)
		return
	}
	h.serverError(w, r, err)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Logout(r.Context(), r.Header.Get("Authorization"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
	case errors.Is(err, rentalAuth.ErrStoreUnavailable), errors.Is(err, rentalAuth.ErrEngineNotReady):
		h.serverError(w, r, err)
	default:
		rejected(w, 1)
	}
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := rentalAuth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, principalResponse{
		MemberUID: p.MemberUID,
		Subject:   p.Subject,
		Roles:     p.Authorities.Names(),
	})
}

func (h *handler) adminForceExpire(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(r.PathValue("uid"), 10, 64)
	if err != nil || uid <= 0 {
		http.Error(w, "invalid member uid", http.StatusBadRequest)
		return
	}

	res, err := h.engine.AdminForceExpireByUID(r.Context(), r.Header.Get(AdminSecretHeader), uid)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, rentalAuth.ErrAdminSecret):
		w.WriteHeader(http.StatusUnauthorized)
	default:
		h.serverError(w, r, err)
	}
}

func (h *handler) listForceExpired(w http.ResponseWriter, r *http.Request) {
	entries, err := h.engine.ListForceExpired(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, rentalAuth.ErrStoreUnavailable) {
		status = http.StatusServiceUnavailable
	}
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, http.StatusText(status), status)
}

func rejected(w http.ResponseWriter, code int) {
	w.Header().Set(ResultCodeHeader, strconv.Itoa(code))
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
