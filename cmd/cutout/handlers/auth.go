package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/auth"
	"github.com/snipline/cutout/cmd/cutout/middleware"
	"github.com/snipline/cutout/cmd/cutout/service"
	"github.com/snipline/cutout/common/config"
	"github.com/snipline/cutout/common/logger"
)

// AuthHandler handles session lifecycle. The OAuth provider exchange is an
// external collaborator; the login endpoint here is the boundary where a
// verified identity gets a session.
type AuthHandler struct {
	identities *service.IdentityService
	sessions   *auth.SessionStore
	cfg        *config.Config
	log        *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identities *service.IdentityService, sessions *auth.SessionStore, cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		sessions:   sessions,
		cfg:        cfg,
		log:        log,
	}
}

// Login creates an authenticated identity and opens a session for it.
// In production this sits behind the OAuth callback.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := h.identities.CreateAuthenticated(ctx)
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	token, err := h.sessions.Create(ctx, identity.ID)
	if err != nil {
		return respondFromError(c, h.log, err)
	}

	middleware.SetSessionCookie(c, token, h.cfg.Auth.SessionTTL)
	return respondOK(c, http.StatusOK, identity)
}

// Logout destroys the caller's session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(middleware.SessionCookie)
	if err == nil {
		if err := h.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
			h.log.Warn("failed to destroy session", "error", err)
		}
	}

	middleware.ClearSessionCookie(c)
	return respondOK(c, http.StatusOK, map[string]bool{"logged_out": true})
}

// Whoami reports the resolved identity, if any
// GET /api/v1/auth/whoami
func (h *AuthHandler) Whoami(c echo.Context) error {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return respondError(c, http.StatusUnauthorized, service.CodeUnauthenticated, "no identity resolved")
	}
	return respondOK(c, http.StatusOK, identity)
}
