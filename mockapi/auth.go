package mockapi

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/warden-io/warden-panel/utils/token"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthServiceInterface interface {
	Login(username, password string) (string, error)
}

// AuthService issues access tokens. Any username is accepted with a
// password of reasonable length; user ids are derived from the username.
type AuthService struct {
	secret     []byte
	expiration time.Duration
}

func NewAuthService(secret string, expirationHours int) *AuthService {
	return &AuthService{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHours) * time.Hour,
	}
}

func (s *AuthService) Login(username, password string) (string, error) {
	if username == "" || len(password) < minPasswordLength {
		return "", ErrInvalidCredentials
	}
	return token.Generate(UserIDFor(username), username, s.secret, s.expiration)
}

func UserIDFor(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("warden:"+username))
}
