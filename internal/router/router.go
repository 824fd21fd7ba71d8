package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sincoline/account-service/internal/config"
	"github.com/sincoline/account-service/internal/handler"
	"github.com/sincoline/account-service/internal/middleware"
)

// RegisterRoutes registers routes that do not belong to the account API,
// currently just the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAccount wires the account API under /api/user.  Credential
// endpoints (login and the password-reset flow) additionally go through
// the Redis token bucket; endpoints acting on a session require a valid
// access token.
func RegisterAccount(e *echo.Echo, a *handler.AccountHandler, accessSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/api/user")
	limited := middleware.RateLimit(rl, rdb)
	authed := middleware.Auth(accessSecret)

	g.POST("/register", a.Register)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/login", a.Login, limited)
	g.GET("/logout", a.Logout, authed)
	g.PUT("/upload-avatar", a.UploadAvatar, authed)
	g.PUT("/update-user", a.UpdateProfile, authed)
	g.PUT("/forgot-password", a.ForgotPassword, limited)
	g.PUT("/verify-forgot-pass-otp", a.VerifyForgotPasswordOtp, limited)
	g.PUT("/reset-password", a.ResetPassword, limited)
	// The refresh endpoint bears its own token, so no auth middleware.
	g.POST("/refresh-token", a.RefreshToken)
}
