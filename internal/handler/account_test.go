package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sincoline/account-service/internal/middleware"
	"github.com/sincoline/account-service/internal/model"
	"github.com/sincoline/account-service/internal/service"
	"github.com/sincoline/account-service/internal/utils"
)

// fakeAccounts satisfies Accounts with canned results.
type fakeAccounts struct {
	registerUser model.User
	registerErr  error
	loginPair    service.TokenPair
	loginErr     error
	refreshTok   utils.SignedToken
	refreshErr   error
	loggedOut    string
	opErr        error
}

func (f *fakeAccounts) Register(_ context.Context, name, email, _ string) (model.User, error) {
	if f.registerErr != nil {
		return model.User{}, f.registerErr
	}
	u := f.registerUser
	u.Name, u.Email = name, email
	return u, nil
}
func (f *fakeAccounts) VerifyEmail(context.Context, string) error { return f.opErr }
func (f *fakeAccounts) Login(_ context.Context, _, _ string) (model.User, service.TokenPair, error) {
	return model.User{}, f.loginPair, f.loginErr
}
func (f *fakeAccounts) Logout(_ context.Context, id string) error {
	f.loggedOut = id
	return f.opErr
}
func (f *fakeAccounts) UpdateProfile(context.Context, string, service.ProfileInput) (model.User, error) {
	return f.registerUser, f.opErr
}
func (f *fakeAccounts) UploadAvatar(context.Context, string, string, string, []byte) (string, error) {
	return "https://img.example/a.png", f.opErr
}
func (f *fakeAccounts) ForgotPassword(context.Context, string) error { return f.opErr }
func (f *fakeAccounts) VerifyForgotPasswordOtp(context.Context, string, string) error {
	return f.opErr
}
func (f *fakeAccounts) ResetPassword(context.Context, string, string, string) error { return f.opErr }
func (f *fakeAccounts) RefreshAccessToken(context.Context, string) (utils.SignedToken, string, error) {
	return f.refreshTok, "u-1", f.refreshErr
}

func newTestHandler(svc Accounts) *AccountHandler {
	return NewAccountHandler(svc, zerolog.Nop(), 15, 7)
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, mod func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestRegisterSuccessEnvelope(t *testing.T) {
	fake := &fakeAccounts{registerUser: model.User{ID: "u-1", Status: model.StatusActive}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/user/register",
		`{"name":"Alice","email":"alice@x.com","password":"pw123"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.False(t, env.Error)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", data["email"])
	assert.Equal(t, false, data["verify_email"])
}

func TestRegisterDuplicateKeeps200WithErrorFlag(t *testing.T) {
	fake := &fakeAccounts{registerErr: &service.Error{Kind: service.KindConflict, Message: "email already registered"}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/user/register",
		`{"name":"Alice","email":"alice@x.com","password":"pw123"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Error)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Message)
}

func TestRegisterValidationIs400(t *testing.T) {
	fake := &fakeAccounts{registerErr: &service.Error{Kind: service.KindValidation, Message: "provide name, email, password"}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/user/register", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, env.Error)
}

func TestRegisterUnexpectedErrorIs500(t *testing.T) {
	fake := &fakeAccounts{registerErr: assert.AnError}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/user/register",
		`{"name":"a","email":"b","password":"c"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, assert.AnError.Error(), env.Message)
}

func TestLoginSetsAuthCookies(t *testing.T) {
	fake := &fakeAccounts{loginPair: service.TokenPair{
		Access:  utils.SignedToken{Token: "acc-token", Exp: time.Now().Add(15 * time.Minute)},
		Refresh: utils.SignedToken{Token: "ref-token", Exp: time.Now().Add(7 * 24 * time.Hour)},
	}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/user/login",
		`{"email":"alice@x.com","password":"pw123"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, "acc-token", data["accessToken"])
	assert.Equal(t, "ref-token", data["refreshToken"])

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, ck := range cookies {
		byName[ck.Name] = ck
	}
	for _, name := range []string{"accessToken", "refreshToken"} {
		ck, ok := byName[name]
		require.True(t, ok, "missing cookie %s", name)
		assert.True(t, ck.HttpOnly)
		assert.True(t, ck.Secure)
		assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	}
}

func TestLoginForbiddenStatusIs400(t *testing.T) {
	fake := &fakeAccounts{loginErr: &service.Error{Kind: service.KindForbidden, Message: "account is not active, contact admin"}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/user/login",
		`{"email":"alice@x.com","password":"pw123"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, env.Error)
}

func TestLogoutClearsCookies(t *testing.T) {
	fake := &fakeAccounts{}
	h := newTestHandler(fake)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "u-1")
	require.NoError(t, h.Logout(c))

	assert.Equal(t, "u-1", fake.loggedOut)
	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}

func TestRefreshTokenFromCookie(t *testing.T) {
	fake := &fakeAccounts{refreshTok: utils.SignedToken{Token: "new-acc", Exp: time.Now().Add(15 * time.Minute)}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.RefreshToken, http.MethodPost, "/api/user/refresh-token", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "ref-token"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "new-acc", env.Data.(map[string]any)["accessToken"])

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "accessToken" && ck.Value == "new-acc" {
			found = true
		}
	}
	assert.True(t, found, "new access token cookie not set")
}

func TestRefreshTokenMissingIs401(t *testing.T) {
	fake := &fakeAccounts{refreshErr: &service.Error{Kind: service.KindUnauthorized, Message: "provide refresh token"}}
	h := newTestHandler(fake)

	rec, env := doJSON(t, h.RefreshToken, http.MethodPost, "/api/user/refresh-token", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, env.Error)
}
