package middleware // reusable HTTP middleware for the account API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sincoline/account-service/internal/utils"
)

// ContextUserID is the key under which the authenticated account id is
// stored on the echo context.
const ContextUserID = "user_id"

// Auth validates an access token and injects the token's subject into the
// request context as ContextUserID.  The token is read from the
// accessToken cookie first (set at login) and falls back to an
// Authorization bearer header.  The secret must match the one used when
// issuing access tokens.
func Auth(accessSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie("accessToken"); err == nil && ck.Value != "" {
				raw = ck.Value
			} else if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message": "provide access token",
					"error":   true,
					"success": false,
				})
			}

			sub, err := utils.VerifyToken(accessSecret, raw)
			if err != nil {
				msg := "invalid access token"
				if err == utils.ErrTokenExpired {
					msg = "access token expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message": msg,
					"error":   true,
					"success": false,
				})
			}

			c.Set(ContextUserID, sub)
			return next(c)
		}
	}
}
