package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/adapter"
)

// Ensure interface compliance:
var _ adapter.IdentityService = (*JWTIdentityService)(nil)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTIdentityService resolves HS256 bearer tokens minted by the external
// session service into a stable identity reference and role. The core never
// issues tokens; it only verifies them.
type JWTIdentityService struct {
	secret []byte
}

func NewJWTIdentityService(secret string) (*JWTIdentityService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTIdentityService{secret: []byte(secret)}, nil
}

type identityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTIdentityService) Resolve(_ context.Context, credential string) (*model.Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	role := model.Role(claims.Role)
	if role != model.RoleCandidate && role != model.RoleRecruiter {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &model.Identity{Ref: claims.Subject, Role: role}, nil
}

// MintToken issues a short-lived token. Exists for tests and local
// tooling; production tokens come from the session service.
func (s *JWTIdentityService) MintToken(ref string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ref,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
