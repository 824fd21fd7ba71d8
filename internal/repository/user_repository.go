package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sincoline/account-service/internal/model"
)

const userColumns = "id,name,email,mobile,password_hash,status,email_verified,avatar_url,refresh_token,reset_otp,reset_otp_expires_at,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a new account row.  The caller supplies the id and the
// already-hashed password.  A collision on the unique email index is
// reported as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash) VALUES (?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		// MySQL error 1062 = duplicate entry for a unique key.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches an account by its exact, case-sensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getWhere(ctx, "email=?", email)
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u   model.User
		exp sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.Status,
			&u.EmailVerified, &u.AvatarURL, &u.RefreshToken, &u.ResetOTP,
			&exp, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if exp.Valid {
		t := exp.Time
		u.ResetOTPExpiresAt = &t
	}
	return u, nil
}

// MarkEmailVerified flips the email_verified flag.  Safe to call on an
// already-verified account.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=1 WHERE id=?", id)
	return err
}

// SetRefreshToken records the last-issued refresh token for the account.
// An empty token clears it (logout).
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", token, id)
	return err
}

// SetAvatarURL stores the hosted avatar location on the account.
func (r *UserRepo) SetAvatarURL(ctx context.Context, id, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=? WHERE id=?", url, id)
	return err
}

// ProfileUpdate carries the optional fields of a partial profile change.
// Nil pointers leave the corresponding column untouched.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Mobile       *string
	PasswordHash *string
}

// UpdateProfile applies a partial update, building the SET clause only from
// the fields that were provided.  A no-op update returns nil.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if p.Name != nil {
		set = append(set, "name=?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		set = append(set, "email=?")
		args = append(args, *p.Email)
	}
	if p.Mobile != nil {
		set = append(set, "mobile=?")
		args = append(args, *p.Mobile)
	}
	if p.PasswordHash != nil {
		set = append(set, "password_hash=?")
		args = append(args, *p.PasswordHash)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrEmailExists
	}
	return err
}

// SetResetOTP stores a password-reset code and its expiry together.
func (r *UserRepo) SetResetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_otp=?, reset_otp_expires_at=? WHERE id=?",
		code, expiresAt, id)
	return err
}

// ReplacePassword writes a new password hash and clears any pending reset
// code in the same statement, so a used code cannot be replayed.
func (r *UserRepo) ReplacePassword(ctx context.Context, id, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_otp='', reset_otp_expires_at=NULL WHERE id=?",
		hash, id)
	return err
}
