package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrAuthHeaderMissing = errors.New("authentication required")
	ErrInvalidAuthFormat = errors.New("authorization header format must be Bearer {token}")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// Claims identify the panel user an access token was issued to.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

func Validate(tokenString string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ParseUnverified reads the claims without checking the signature. Clients
// use it to learn when their token expires; it grants nothing.
func ParseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func Generate(userID uuid.UUID, username string, secret []byte, expiration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Extract reads the token from the query string (websocket upgrades) or
// from a Bearer authorization header.
func Extract(c *gin.Context) (string, error) {
	if t := c.Query("token"); t != "" {
		return t, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrAuthHeaderMissing
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}

func ExtractAndValidate(c *gin.Context, secret []byte) (*Claims, error) {
	tokenString, err := Extract(c)
	if err != nil {
		return nil, err
	}
	return Validate(tokenString, secret)
}
