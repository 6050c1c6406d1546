package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TokenPurpose separates session credentials from single-purpose reset
// credentials. A token issued for one purpose is rejected by the other path.
type TokenPurpose string

const (
	PurposeSession       TokenPurpose = "session"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// ErrWrongPurpose marks a structurally valid token presented to the wrong
// verification path.
var ErrWrongPurpose = errors.New("token purpose mismatch")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, sessionTTL, resetTTL time.Duration) *TokenManager {
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &TokenManager{secret: []byte(secret), sessionTTL: sessionTTL, resetTTL: resetTTL}
}

// Claims describes the JWT payload.
type Claims struct {
	UserID  int64        `json:"uid"`
	Email   string       `json:"email,omitempty"`
	Role    domain.Role  `json:"role,omitempty"`
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateSessionToken issues a signed session token for a technician.
func (tm *TokenManager) GenerateSessionToken(user *domain.User) (string, time.Time, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return tm.sign(&Claims{
		UserID:  user.ID,
		Email:   email,
		Role:    user.Role,
		Purpose: PurposeSession,
	}, tm.sessionTTL)
}

// GenerateResetToken issues a short-lived single-purpose reset token.
func (tm *TokenManager) GenerateResetToken(userID int64) (string, time.Time, error) {
	return tm.sign(&Claims{
		UserID:  userID,
		Purpose: PurposePasswordReset,
	}, tm.resetTTL)
}

func (tm *TokenManager) sign(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(claims.UserID, 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionToken validates a token and requires the session purpose.
func (tm *TokenManager) ParseSessionToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, PurposeSession)
}

// ParseResetToken validates a token and requires the reset purpose.
func (tm *TokenManager) ParseResetToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, PurposePasswordReset)
}

func (tm *TokenManager) parse(tokenStr string, purpose TokenPurpose) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
