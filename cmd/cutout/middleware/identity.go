package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/snipline/cutout/cmd/cutout/auth"
	"github.com/snipline/cutout/cmd/cutout/models"
	"github.com/snipline/cutout/common/logger"
)

// Cookie names
const (
	SessionCookie = "cutout_session"
	AnonCookie    = "cutout_anon"
)

// resolutionKey is the echo context key holding the request's Resolution
const resolutionKey = "identity_resolution"

// ResolveIdentity runs identity resolution on every request and stashes
// the outcome in the echo context. It never rejects a request itself:
// endpoints that need an identity enforce that via the ownership gate.
func ResolveIdentity(resolver *auth.Resolver, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionToken := cookieValue(c, SessionCookie)
			anonToken := cookieValue(c, AnonCookie)

			res, err := resolver.Resolve(c.Request().Context(), sessionToken, anonToken)
			if err != nil {
				log.Error("identity resolution failed", "error", err)
				return c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"success": false,
					"error": map[string]string{
						"message": "failed to resolve identity",
						"code":    "INTERNAL",
					},
				})
			}

			if res.ClearAnonCookie {
				ClearAnonCookie(c)
			}

			c.Set(resolutionKey, res)
			return next(c)
		}
	}
}

// GetResolution retrieves the request's identity resolution
func GetResolution(c echo.Context) auth.Resolution {
	if res, ok := c.Get(resolutionKey).(auth.Resolution); ok {
		return res
	}
	return auth.Resolution{}
}

// GetIdentity retrieves the resolved identity, nil when none
func GetIdentity(c echo.Context) *models.Identity {
	return GetResolution(c).Identity
}

// SetAnonCookie attaches the signed anonymous token
func SetAnonCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     AnonCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAnonCookie expires the anonymous token cookie
func ClearAnonCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     AnonCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSessionCookie attaches the opaque session token
func SetSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
