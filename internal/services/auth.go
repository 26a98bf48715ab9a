package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

// JWTClaims identifies the caller of a mutating route: an operator, a scheduler or the ingest pipeline.
type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(tokenString string) (*JWTClaims, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
		now:          time.Now,
	}, nil
}

func (as *authService) Issue(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("subject required: %w", errs.ErrInvalidArgument)
	}
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

// Verify accepts only HS256 tokens signed with the configured key and carrying a subject.
func (as *authService) Verify(tokenString string) (*JWTClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("missing token: %w", errs.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		as.log.Debug("Token rejected", "error", err)
		return nil, fmt.Errorf("parse token: %v: %w", err, errs.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid or expired token: %w", errs.ErrUnauthorized)
	}
	return claims, nil
}
