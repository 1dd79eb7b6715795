package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

// JWTIssuer implementa ports.TokenIssuer com HS256
type JWTIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTIssuer cria um emissor HS256
func NewJWTIssuer(secret, issuer string) ports.TokenIssuer {
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (j *JWTIssuer) Issue(subjectID uint, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(subjectID), 10),
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify valida assinatura e expiração e devolve o ID numérico do claim "sub"
func (j *JWTIssuer) Verify(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, domainerrors.ErrTokenExpired
		}
		return 0, domainerrors.Wrap(domainerrors.KindUnauthenticated, domainerrors.ErrTokenInvalid.Message, err)
	}

	if claims.Subject == "" {
		return 0, domainerrors.ErrTokenSubject
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, domainerrors.ErrTokenSubject
	}
	return uint(id), nil
}
