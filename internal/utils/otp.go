package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewOTP returns a uniformly random numeric code of the given length,
// left-padded with zeros.  Codes carry no structural link to the account;
// the caller attaches them by persisting alongside an expiry.
func NewOTP(length int) (string, error) {
	if length < 1 {
		length = 6
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
