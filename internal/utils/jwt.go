package utils // package utils provides helper functions for token creation and verification

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignedToken bundles a serialized HS256 JWT with its expiration time.
// Access and refresh tokens share this shape but are signed with
// independent secrets and very different TTLs: access tokens live minutes,
// refresh tokens live days.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ErrTokenExpired reports a token whose exp claim has lapsed.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid reports a token that failed signature or structural
// checks (including tokens signed under a different secret).
var ErrTokenInvalid = errors.New("token invalid")

// NewAccessToken builds and signs a short-lived HS256 JWT bound to the
// account id.  Claims: subject (sub), expiration (exp), issued at (iat).
func NewAccessToken(secret, userID string, ttlMin int) (SignedToken, error) {
	return signToken(secret, userID, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs a long-lived HS256 JWT bound to the
// account id, under the refresh secret.  Its only purpose is minting new
// access tokens.
func NewRefreshToken(secret, userID string, ttlDays int) (SignedToken, error) {
	return signToken(secret, userID, time.Duration(ttlDays)*24*time.Hour)
}

func signToken(secret, userID string, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses a token under the given secret and returns the subject
// claim.  Expired tokens are classified as ErrTokenExpired; anything else
// that fails (bad signature, wrong algorithm, malformed claims) is
// ErrTokenInvalid.
func VerifyToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens using a different algorithm family.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !tok.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
