package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sincoline/account-service/internal/middleware"
	"github.com/sincoline/account-service/internal/model"
	"github.com/sincoline/account-service/internal/service"
	"github.com/sincoline/account-service/internal/utils"
)

// Accounts is the lifecycle surface the handlers call.  It is satisfied by
// *service.AccountService and faked in tests.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (model.User, error)
	VerifyEmail(ctx context.Context, code string) error
	Login(ctx context.Context, email, password string) (model.User, service.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	UpdateProfile(ctx context.Context, accountID string, in service.ProfileInput) (model.User, error)
	UploadAvatar(ctx context.Context, accountID, filename, contentType string, data []byte) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyForgotPasswordOtp(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (utils.SignedToken, string, error)
}

// AccountHandler adapts the lifecycle service to the HTTP surface: the
// uniform {message,error,success,data} envelope and the auth cookie pair.
type AccountHandler struct {
	svc        Accounts
	log        zerolog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAccountHandler(svc Accounts, log zerolog.Logger, accessTTLMin, refreshTTLDays int) *AccountHandler {
	return &AccountHandler{
		svc:        svc,
		log:        log,
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// ----- envelope -----

type envelope struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

func ok(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, envelope{Message: msg, Error: false, Success: true, Data: data})
}

// respondErr converts a classified service failure into the envelope.
// Duplicate registration keeps the observed contract of HTTP 200 with the
// error flag set.  Unexpected errors surface as 500 with the raw message.
func (h *AccountHandler) respondErr(c echo.Context, err error) error {
	kind := service.Classify(err)
	if kind == 0 {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("account operation failed")
		return c.JSON(http.StatusInternalServerError, envelope{Message: err.Error(), Error: true, Success: false})
	}
	status := http.StatusBadRequest
	if kind == service.KindConflict {
		status = http.StatusOK
	}
	return c.JSON(status, envelope{Message: err.Error(), Error: true, Success: false})
}

// respondTokenErr is respondErr for endpoints whose classified failures
// are all token failures (401 rather than 400).
func (h *AccountHandler) respondTokenErr(c echo.Context, err error) error {
	if service.Classify(err) == 0 {
		return h.respondErr(c, err)
	}
	return c.JSON(http.StatusUnauthorized, envelope{Message: err.Error(), Error: true, Success: false})
}

// ----- cookies -----

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	if value == "" {
		ck.Expires = time.Unix(0, 0)
		ck.MaxAge = -1
	} else {
		ck.Expires = time.Now().UTC().Add(ttl)
	}
	return ck
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type verifyEmailReq struct {
	Code string `json:"code"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type updateProfileReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Mobile   *string `json:"mobile"`
	Password *string `json:"password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type verifyOtpReq struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}
type resetPasswordReq struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func opCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func currentUserID(c echo.Context) string {
	if v, ok := c.Get(middleware.ContextUserID).(string); ok {
		return v
	}
	return ""
}

// ----- handlers -----

// Register creates an account and emails a verification link.
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	u, err := h.svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "user registered successfully", u)
}

// VerifyEmail marks the account matching the emailed code as verified.
func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.svc.VerifyEmail(ctx, req.Code); err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "email verified", nil)
}

// Login returns an access/refresh pair in the body and as cookies.
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	_, pair, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return h.respondErr(c, err)
	}

	c.SetCookie(authCookie("accessToken", pair.Access.Token, h.accessTTL))
	c.SetCookie(authCookie("refreshToken", pair.Refresh.Token, h.refreshTTL))

	return ok(c, "login successfully", echo.Map{
		"accessToken":  pair.Access.Token,
		"refreshToken": pair.Refresh.Token,
	})
}

// Logout clears the stored refresh token and both auth cookies.
func (h *AccountHandler) Logout(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.svc.Logout(ctx, currentUserID(c)); err != nil {
		return h.respondErr(c, err)
	}
	c.SetCookie(authCookie("accessToken", "", 0))
	c.SetCookie(authCookie("refreshToken", "", 0))
	return ok(c, "logout successfully", nil)
}

// UpdateProfile applies a partial change to the authenticated account.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	u, err := h.svc.UpdateProfile(ctx, currentUserID(c), service.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "profile updated successfully", u)
}

// UploadAvatar accepts a multipart "avatar" file, hands it to the image
// host and stores the returned URL.
func (h *AccountHandler) UploadAvatar(c echo.Context) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "provide avatar file", Error: true, Success: false})
	}
	f, err := fh.Open()
	if err != nil {
		return h.respondErr(c, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return h.respondErr(c, err)
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	uid := currentUserID(c)
	url, err := h.svc.UploadAvatar(ctx, uid, fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "image uploaded successfully", echo.Map{"_id": uid, "avatar": url})
}

// ForgotPassword sets a reset code on the account and emails it.
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.svc.ForgotPassword(ctx, req.Email); err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "otp sent to registered email", nil)
}

// VerifyForgotPasswordOtp confirms a reset code without consuming it.
func (h *AccountHandler) VerifyForgotPasswordOtp(c echo.Context) error {
	var req verifyOtpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.svc.VerifyForgotPasswordOtp(ctx, req.Email, req.Otp); err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "otp verified", nil)
}

// ResetPassword stores a new password and clears the reset code.
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, envelope{Message: "invalid body", Error: true, Success: false})
	}
	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.svc.ResetPassword(ctx, req.Email, req.NewPassword, req.ConfirmPassword); err != nil {
		return h.respondErr(c, err)
	}
	return ok(c, "password reset successfully", nil)
}

// RefreshToken mints a new access token from a refresh token.  The cookie
// takes precedence over an Authorization bearer header.
func (h *AccountHandler) RefreshToken(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie("refreshToken"); err == nil && ck.Value != "" {
		raw = ck.Value
	} else if hdr := c.Request().Header.Get("Authorization"); strings.HasPrefix(hdr, "Bearer ") {
		raw = strings.TrimPrefix(hdr, "Bearer ")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	access, _, err := h.svc.RefreshAccessToken(ctx, raw)
	if err != nil {
		return h.respondTokenErr(c, err)
	}
	c.SetCookie(authCookie("accessToken", access.Token, h.accessTTL))
	return ok(c, "access token refreshed", echo.Map{"accessToken": access.Token})
}
