package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// These are the expected values for Claims.Role.
const (
	RoleStaff   = "STAFF"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// Key is used to store/retrieve a Claims value from a context.Context.
const Key ctxKey = 1

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserId int    `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
}

// Authorized returns true if the claims has at least one of the provided roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, has := range roles {
		if has == c.Role {
			return true
		}
	}
	return false
}

// Auth is used to authenticate clients. It can generate a token for a
// set of user claims and recreate the claims by parsing the token.
type Auth struct {
	key        []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

// New creates an *Auth for use with signing tokens with the given key.
func New(key string) (*Auth, error) {
	if key == "" {
		return nil, errors.New("jwt key must be provided")
	}

	return &Auth{
		key:        []byte(key),
		method:     jwt.SigningMethodHS256,
		accessTTL:  12 * time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
		parser:     &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Name}},
	}, nil
}

// GenerateToken issues an access and a refresh token for the user.
func (a *Auth) GenerateToken(userID int, role string) (string, string, error) {
	now := time.Now()

	access, err := a.sign(Claims{
		StandardClaims: jwt.StandardClaims{IssuedAt: now.Unix(), ExpiresAt: now.Add(a.accessTTL).Unix()},
		UserId:         userID,
		Role:           role,
		Type:           TypeAccess,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "signing access token")
	}

	refresh, err := a.sign(Claims{
		StandardClaims: jwt.StandardClaims{IssuedAt: now.Unix(), ExpiresAt: now.Add(a.refreshTTL).Unix()},
		UserId:         userID,
		Role:           role,
		Type:           TypeRefresh,
	})
	if err != nil {
		return "", "", errors.Wrap(err, "signing refresh token")
	}

	return access, refresh, nil
}

func (a *Auth) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(a.method, claims).SignedString(a.key)
}

// ValidateToken recreates the Claims that were used to generate a token. It
// verifies that the token was signed using our key and is an access token.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	return a.parse(tokenStr, TypeAccess)
}

// ValidateRefreshToken is ValidateToken for refresh tokens.
func (a *Auth) ValidateRefreshToken(tokenStr string) (Claims, error) {
	return a.parse(tokenStr, TypeRefresh)
}

func (a *Auth) parse(tokenStr string, tokenType string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return Claims{}, errors.Wrap(err, "parsing token")
	}

	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	if claims.Type != tokenType {
		return Claims{}, errors.Errorf("expected %s token", tokenType)
	}

	return claims, nil
}

// ClaimsFrom returns the claims stored in ctx by the authentication middleware.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(Key).(Claims)
	return claims, ok
}
