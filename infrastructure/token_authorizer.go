package infrastructure

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/service"
)

// TokenAuthorizer authorizes callers by bearer credential. The engine operator
// presents the admin secret; accounts present an HS256 JWT whose subject is the account.
type TokenAuthorizer struct {
	adminToken string
	jwtSecret  []byte
}

// NewTokenAuthorizer creates a new token authorizer
func NewTokenAuthorizer(adminToken, jwtSecret string) *TokenAuthorizer {
	return &TokenAuthorizer{
		adminToken: adminToken,
		jwtSecret:  []byte(jwtSecret),
	}
}

// AuthorizeAccount succeeds when the caller's token was issued to the account
func (a *TokenAuthorizer) AuthorizeAccount(ctx context.Context, caller, account string) error {
	subject, err := a.parseSubject(caller)
	if err != nil {
		log.WithFields(log.Fields{
			"account": account,
			"error":   err,
		}).Debug("Rejected account token")
		return service.ErrUnauthorized
	}

	if subject != account {
		log.WithFields(log.Fields{
			"account": account,
			"subject": subject,
		}).Warn("Token subject does not match account")
		return service.ErrUnauthorized
	}

	return nil
}

// AuthorizePrivileged succeeds only for the admin secret
func (a *TokenAuthorizer) AuthorizePrivileged(ctx context.Context, caller string) error {
	if a.adminToken == "" || caller == "" {
		return service.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(caller), []byte(a.adminToken)) != 1 {
		return service.ErrUnauthorized
	}
	return nil
}

// IssueAccountToken signs a token for an account, valid for ttl
func (a *TokenAuthorizer) IssueAccountToken(account string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token for %s: %w", account, err)
	}
	return signed, nil
}

func (a *TokenAuthorizer) parseSubject(tokenString string) (string, error) {
	if tokenString == "" || len(a.jwtSecret) == 0 {
		return "", fmt.Errorf("missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return claims.Subject, nil
}
