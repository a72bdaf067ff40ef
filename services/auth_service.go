package services

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/utils/token"
)

type AuthServiceInterface interface {
	SetToken(accessToken string)
	ClearToken()
	Token() string
	IsLoggedIn() bool
	AuthorizeRequest(req *http.Request)
}

// AuthService holds the access token of the signed in panel user.
type AuthService struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

func NewAuthService(accessToken string) *AuthService {
	s := &AuthService{now: time.Now}
	s.SetToken(accessToken)
	return s
}

func (s *AuthService) SetToken(accessToken string) {
	s.mu.Lock()
	s.token = accessToken
	s.mu.Unlock()
}

func (s *AuthService) ClearToken() {
	s.SetToken("")
}

func (s *AuthService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsLoggedIn reports whether a token is held and has not expired. Tokens
// without an expiry claim count as valid.
func (s *AuthService) IsLoggedIn() bool {
	accessToken := s.Token()
	if accessToken == "" {
		return false
	}

	claims, err := token.ParseUnverified(accessToken)
	if err != nil {
		log.Debug().Err(err).Msg("access token is not readable")
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return s.now().Before(claims.ExpiresAt.Time)
}

// AuthorizeRequest adds the bearer header when a token is held.
func (s *AuthService) AuthorizeRequest(req *http.Request) {
	if accessToken := s.Token(); accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}
