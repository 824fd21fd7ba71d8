package model

import "time"

// Account status values.  Only Active accounts may complete a login; the
// other two are admin-controlled gates.
const (
	StatusActive    = "Active"
	StatusInactive  = "Inactive"
	StatusSuspended = "Suspended"
)

// User represents an account record as stored in the `users` table.  The
// table uses a binary collation so emails are compared case-sensitively.
//
// Fields:
//
//	ID                – opaque uuid primary key; also doubles as the
//	                    email-verification code sent to the user.
//	Email             – unique, case-sensitive address.
//	Mobile            – optional contact number.
//	PasswordHash      – bcrypt hash; raw passwords are never persisted.
//	Status            – Active/Inactive/Suspended gate.
//	EmailVerified     – set once the verification link is followed.
//	AvatarURL         – public URL of the uploaded avatar, if any.
//	RefreshToken      – last-issued refresh token, or empty after logout.
//	ResetOTP          – pending password-reset code, or empty.
//	ResetOTPExpiresAt – when the pending code lapses (nil when no code).
//
// ResetOTP and ResetOTPExpiresAt are always written and cleared together.
type User struct {
	ID                string     `json:"_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Mobile            string     `json:"mobile,omitempty"`
	PasswordHash      string     `json:"-"`
	Status            string     `json:"status"`
	EmailVerified     bool       `json:"verify_email"`
	AvatarURL         string     `json:"avatar,omitempty"`
	RefreshToken      string     `json:"-"`
	ResetOTP          string     `json:"-"`
	ResetOTPExpiresAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
