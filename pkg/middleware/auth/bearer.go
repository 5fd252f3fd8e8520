package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	CtxUserID    = "user_id"
	bearerPrefix = "Bearer "
)

type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "bearer_auth")

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			l.Warn("auth_rejected", "status", 401, "reason", "no token provided")
			return echo.NewHTTPError(http.StatusUnauthorized, "access denied, no token provided")
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			l.Warn("auth_rejected", "status", 400, "reason", "malformed authorization header")
			return echo.NewHTTPError(http.StatusBadRequest, `invalid token format, must start with "Bearer "`)
		}

		claims, err := tokens.AccessClaimsFromToken(strings.TrimPrefix(header, bearerPrefix), m.JWTSecret)
		if err != nil {
			l.Warn("auth_rejected", "status", 401, "reason", "invalid or expired token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(CtxUserID, claims.UserID)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logging.FromContext(req.Context()).With("user_id", claims.UserID))))

		return next(c)
	}
}

// UserID returns the identity attached by RequireAuth.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(CtxUserID).(uint)
	return id, ok && id != 0
}
