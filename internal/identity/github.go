package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/perfsage/perfsage/internal/config"
)

const (
	stateCookie    = "perfsage_oauth_state"
	githubUserURL  = "https://api.github.com/user"
	stateCookieAge = 300
)

// Service runs the GitHub OAuth code flow and manages sessions.
type Service struct {
	oauth    *oauth2.Config
	sessions *Sessions
	logger   *slog.Logger

	// userURL is overridden in tests.
	userURL string
}

// NewService builds the identity service from auth configuration.
func NewService(cfg config.AuthConfig, logger *slog.Logger) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     oauthgithub.Endpoint,
		},
		sessions: NewSessions(cfg),
		logger:   logger,
		userURL:  githubUserURL,
	}
}

// Sessions exposes the session manager for middleware wiring.
func (s *Service) Sessions() *Sessions { return s.sessions }

// LoginURL returns the provider redirect for a fresh state value.
func (s *Service) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// NewState returns an unguessable state token for the OAuth round trip.
func (s *Service) NewState() string {
	return uuid.NewString()
}

// Exchange trades the callback code for the GitHub username and returns a
// signed session token for it.
func (s *Service) Exchange(ctx context.Context, code string) (username, token string, err error) {
	oauthToken, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	username, err = s.fetchLogin(ctx, oauthToken)
	if err != nil {
		return "", "", err
	}

	token, _, err = s.sessions.Issue(username)
	if err != nil {
		return "", "", fmt.Errorf("issue session: %w", err)
	}
	return username, token, nil
}

// fetchLogin asks the provider who the token belongs to.
func (s *Service) fetchLogin(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch user: %v", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: user endpoint returned %s", ErrOAuthExchange, resp.Status)
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("%w: decode user: %v", ErrOAuthExchange, err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("%w: user has no login", ErrOAuthExchange)
	}
	return user.Login, nil
}
