// Package tokens signs and verifies the two token kinds used by the session
// layer. Access and refresh tokens are HS256 JWTs with independent secrets
// and independent lifetimes; both carry the user's token version so a single
// version bump on the user record invalidates everything issued before it.
package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrUnexpectedMethod = errors.New("unexpected sign method")

type AccessClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

type Codec struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (c *Codec) SignAccess(userID uint, tokenVersion int) (string, time.Time, error) {
	exp := time.Now().Add(c.AccessTTL)
	claims := AccessClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatID(userID),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// SignRefresh embeds jti so the token can be correlated with its
// server-side RefreshToken row.
func (c *Codec) SignRefresh(userID uint, tokenVersion int, jti string) (string, time.Time, error) {
	exp := time.Now().Add(c.RefreshTTL)
	claims := RefreshClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   formatID(userID),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (c *Codec) ParseAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedMethod
		}
		return c.AccessSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

func (c *Codec) ParseRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedMethod
		}
		return c.RefreshSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

func (a *AccessClaims) UserID() (uint, error)  { return parseID(a.Subject) }
func (r *RefreshClaims) UserID() (uint, error) { return parseID(r.Subject) }

func NewJTI() string { return uuid.NewString() }

func formatID(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func parseID(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
