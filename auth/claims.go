package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var now = time.Now

// ExpiresAt returns the exp claim of a JWT without verifying it. ok is
// false when the token carries no exp claim.
func ExpiresAt(token string) (exp time.Time, ok bool, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, err
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false, err
	}
	return date.Time, true, nil
}

// Expired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens and JWTs without exp never expire here.
func Expired(token string) bool {
	exp, ok, err := ExpiresAt(token)
	if err != nil || !ok {
		return false
	}
	return !now().Before(exp)
}
