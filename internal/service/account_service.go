// Package service implements the account lifecycle: registration, email
// verification, login/logout, profile and avatar updates, OTP-based
// password reset and access/refresh token issuance.  Collaborators (store,
// notifier, image host) are injected as interfaces so the lifecycle logic
// stays independent from MySQL, RabbitMQ and S3.
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sincoline/account-service/internal/config"
	"github.com/sincoline/account-service/internal/model"
	"github.com/sincoline/account-service/internal/repository"
	"github.com/sincoline/account-service/internal/utils"
)

// UserStore is the slice of the repository the lifecycle needs.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	SetAvatarURL(ctx context.Context, id, url string) error
	UpdateProfile(ctx context.Context, id string, p repository.ProfileUpdate) error
	SetResetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	ReplacePassword(ctx context.Context, id, hash string) error
}

// Notifier delivers account emails.  Implementations publish to the mail
// queue; from here delivery is fire-and-forget.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, name, link string) error
	SendPasswordResetOTP(ctx context.Context, to, name, otp string) error
}

// ImageStore hosts uploaded avatar images and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// ProfileInput carries the optional fields of a profile update.  Nil means
// "leave unchanged"; a provided password is re-hashed before storage.
type ProfileInput struct {
	Name     *string
	Email    *string
	Mobile   *string
	Password *string
}

type AccountService struct {
	cfg      config.Config
	users    UserStore
	notifier Notifier
	images   ImageStore
	log      zerolog.Logger
}

func NewAccountService(cfg config.Config, users UserStore, n Notifier, img ImageStore, log zerolog.Logger) *AccountService {
	return &AccountService{cfg: cfg, users: users, notifier: n, images: img, log: log}
}

// Register creates an unverified Active account and emails a verification
// link keyed by the new account's id.  A failed email send is logged but
// does not fail the registration.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return model.User{}, fail(KindValidation, "provide name, email, password")
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       model.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, fail(KindConflict, "email already registered")
		}
		return model.User{}, fmt.Errorf("create account: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?code=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), u.ID)
	if err := s.notifier.SendVerificationEmail(ctx, email, name, link); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("verification email not sent")
	}

	if saved, err := s.users.GetByID(ctx, u.ID); err == nil {
		return saved, nil
	}
	return u, nil
}

// VerifyEmail marks the account whose id matches the emailed code as
// verified.  Verifying twice is harmless.
func (s *AccountService) VerifyEmail(ctx context.Context, code string) error {
	u, err := s.users.GetByID(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "invalid code")
		}
		return fmt.Errorf("load account: %w", err)
	}
	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// Login authenticates an Active account and issues a fresh access/refresh
// pair.  The refresh token is persisted on the account row so logout can
// revoke it.
func (s *AccountService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, TokenPair{}, fail(KindValidation, "provide email, password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, TokenPair{}, fail(KindNotFound, "user not registered")
		}
		return model.User{}, TokenPair{}, fmt.Errorf("load account: %w", err)
	}
	if u.Status != model.StatusActive {
		return model.User{}, TokenPair{}, fail(KindForbidden, "account is not active, contact admin")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, fail(KindUnauthorized, "incorrect password")
	}

	access, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, s.cfg.AccessTTLMin)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, s.cfg.RefreshTTLDays)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh.Token); err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return u, TokenPair{Access: access, Refresh: refresh}, nil
}

// Logout clears the stored refresh token.  Calling it for an account that
// is already logged out is a no-op.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	if err := s.users.SetRefreshToken(ctx, accountID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial update; omitted fields are left
// untouched.  A provided password is re-hashed first.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (model.User, error) {
	upd := repository.ProfileUpdate{Name: in.Name, Email: in.Email, Mobile: in.Mobile}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password, s.cfg.BcryptCost)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = &hash
	}
	if err := s.users.UpdateProfile(ctx, accountID, upd); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, fail(KindConflict, "email already registered")
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	u, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, fail(KindNotFound, "user not registered")
		}
		return model.User{}, fmt.Errorf("load account: %w", err)
	}
	return u, nil
}

// UploadAvatar stores the image with the hosting collaborator and records
// the returned URL on the account.
func (s *AccountService) UploadAvatar(ctx context.Context, accountID, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fail(KindValidation, "provide avatar image")
	}
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".img"
	}
	key := "avatars/" + accountID + ext
	url, err := s.images.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.users.SetAvatarURL(ctx, accountID, url); err != nil {
		return "", fmt.Errorf("store avatar url: %w", err)
	}
	return url, nil
}

// ForgotPassword generates a reset code valid for the configured window
// (one hour by default), persists code and expiry together and emails the
// code to the account.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fail(KindValidation, "provide email")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "user not registered")
		}
		return fmt.Errorf("load account: %w", err)
	}

	code, err := utils.NewOTP(s.cfg.OTPLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := time.Now().UTC().Add(s.cfg.OTPTTL)
	if err := s.users.SetResetOTP(ctx, u.ID, code, expiresAt); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if err := s.notifier.SendPasswordResetOTP(ctx, u.Email, u.Name, code); err != nil {
		s.log.Warn().Err(err).Str("email", u.Email).Msg("otp email not sent")
	}
	return nil
}

// VerifyForgotPasswordOtp checks the submitted code against the stored
// one.  It is a pure confirmation step: the code stays valid until the
// password is actually reset or the expiry lapses.
func (s *AccountService) VerifyForgotPasswordOtp(ctx context.Context, email, otp string) error {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return fail(KindValidation, "provide email, otp")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "user not registered")
		}
		return fmt.Errorf("load account: %w", err)
	}
	if u.ResetOTP == "" || u.ResetOTPExpiresAt == nil {
		return fail(KindInvalidOTP, "invalid otp")
	}
	if !time.Now().UTC().Before(u.ResetOTPExpiresAt.UTC()) {
		return fail(KindExpired, "otp expired")
	}
	if u.ResetOTP != otp {
		return fail(KindInvalidOTP, "invalid otp")
	}
	return nil
}

// ResetPassword replaces the password hash.  The confirm check runs before
// any hashing; the stored reset code is cleared in the same write.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" || newPassword == "" || confirmPassword == "" {
		return fail(KindValidation, "provide email, newPassword, confirmPassword")
	}
	if newPassword != confirmPassword {
		return fail(KindValidation, "newPassword and confirmPassword must match")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(KindNotFound, "user not registered")
		}
		return fmt.Errorf("load account: %w", err)
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ReplacePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("replace password: %w", err)
	}
	return nil
}

// RefreshAccessToken verifies a refresh token and mints a new short-lived
// access token bound to the same subject.
func (s *AccountService) RefreshAccessToken(ctx context.Context, refreshToken string) (utils.SignedToken, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return utils.SignedToken{}, "", fail(KindUnauthorized, "provide refresh token")
	}
	sub, err := utils.VerifyToken(s.cfg.RefreshSecret, refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return utils.SignedToken{}, "", fail(KindUnauthorized, "refresh token expired")
		}
		return utils.SignedToken{}, "", fail(KindUnauthorized, "invalid refresh token")
	}
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, sub, s.cfg.AccessTTLMin)
	if err != nil {
		return utils.SignedToken{}, "", fmt.Errorf("issue access token: %w", err)
	}
	return access, sub, nil
}
