// Package httpapi exposes the sessiond HTTP API: token issuing, session-URI
// issuing, health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
)

// Authenticator issues bearer tokens for valid credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// SessionIssuer hands out pre-authorized upload URLs for a recording folder.
type SessionIssuer interface {
	IssueSessionURIs(ctx context.Context, userID, folderName string) (map[string]string, time.Time, error)
}

type Handler struct {
	auth     Authenticator
	sessions SessionIssuer
	logger   logging.Logger
}

func NewHandler(auth Authenticator, sessions SessionIssuer, logger logging.Logger) *Handler {
	return &Handler{
		auth:     auth,
		sessions: sessions,
		logger:   logger.With("component", "httpapi"),
	}
}

// NewRouter builds the chi router with metrics middleware and bearer auth on
// the session-URI endpoint.
func NewRouter(h *Handler, v TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/api/token", h.IssueToken)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(v))
		r.Post("/api/session-uri", h.IssueSessionURIs)
	})

	return r
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	token, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.logger.Error(r.Context(), "authenticate failed", "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

type sessionURIRequest struct {
	FolderName string `json:"folderName"`
}

type sessionURIResponse struct {
	SessionURIs               map[string]string `json:"sessionUris"`
	SessionURIsExpirationTime int64             `json:"sessionUrisExpirationTime"`
}

func (h *Handler) IssueSessionURIs(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req sessionURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FolderName == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	uris, expiresAt, err := h.sessions.IssueSessionURIs(r.Context(), userID, req.FolderName)
	if err != nil {
		h.logger.Error(r.Context(), "session uri issuing failed",
			"folder", req.FolderName, "error", err.Error())
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info(r.Context(), "session uris issued",
		"folder", req.FolderName, "user", userID, "count", len(uris))

	writeJSON(w, http.StatusOK, sessionURIResponse{
		SessionURIs:               uris,
		SessionURIsExpirationTime: expiresAt.UnixMilli(),
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
