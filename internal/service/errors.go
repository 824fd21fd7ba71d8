package service

import "errors"

// Kind classifies a failed account operation.  Handlers translate kinds
// into HTTP statuses and keep the message for the response envelope.
type Kind int

const (
	KindValidation Kind = iota + 1 // required input missing or malformed
	KindConflict                   // duplicate email
	KindNotFound                   // no matching account
	KindForbidden                  // account not Active
	KindUnauthorized               // bad credentials or bad/expired token
	KindExpired                    // password-reset code past its expiry
	KindInvalidOTP                 // password-reset code mismatch
)

// Error is a classified, user-presentable failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(kind Kind, msg string) error { return &Error{Kind: kind, Message: msg} }

// Classify extracts the Kind from err, or 0 when err is not a classified
// failure (unexpected errors surface as HTTP 500).
func Classify(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
