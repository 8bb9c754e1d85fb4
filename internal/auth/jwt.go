package auth

import (
	"errors"
	"strconv"
	"time"

	"circuitrack/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload. Wallet and order routes key
// everything off UserID; Role gates the admin group.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

func registered(cfg *config.JWTConfig, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    cfg.Issuer,
	}
}

func GenerateAccessToken(cfg *config.JWTConfig, userID uint, role string) (string, error) {
	claims := Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: registered(cfg, cfg.AccessExpiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
}

// GenerateRefreshToken signs a subject-only token with the refresh secret,
// so it can never pass as an access token.
func GenerateRefreshToken(cfg *config.JWTConfig, userID uint) (string, error) {
	claims := registered(cfg, cfg.RefreshExpiry)
	claims.Subject = strconv.FormatUint(uint64(userID), 10)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.RefreshSecret))
}

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(cfg, tokenString, cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken returns the user id a refresh token was issued to.
func ParseRefreshToken(cfg *config.JWTConfig, tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	if err := parse(cfg, tokenString, cfg.RefreshSecret, claims); err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 0)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func parse(cfg *config.JWTConfig, tokenString, secret string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
