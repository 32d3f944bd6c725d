package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const issuer = "Masomo"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OriginalIssuedAt int64  `json:"oriat,omitempty"`
	Role             string `json:"role"`
	Name             string `json:"name,omitempty"`
}

func (c Claims) UserID() string { return c.Subject }

// UserClaims returns the claims of usr valid for ttl from now.
// origIat keeps the original login time across refreshes.
func UserClaims(usr user.User, now time.Time, ttl time.Duration, origIat ...int64) *Claims {
	oriat := now.Unix()
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		OriginalIssuedAt: oriat,
		Role:             usr.Role,
		Name:             usr.Name,
	}
}

// IssueToken signs claims with HS256.
func IssueToken(secret []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies tokenString. An expired token yields core.ErrAuthExpired,
// any other failure core.ErrUnauthenticated.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, core.ErrAuthExpired
		}
		return nil, errors.Wrap(core.ErrUnauthenticated, err.Error())
	}
	return claims, nil
}

// ExpiryOf reads the exp claim of tokenString without verifying its signature.
func ExpiryOf(tokenString string) (time.Time, bool) {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0).UTC(), true
}
