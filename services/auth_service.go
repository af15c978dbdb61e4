package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when the identity provider cannot resolve a
// bearer token to a user.
var ErrUnauthorized = errors.New("unauthorized")

// AuthService resolves bearer tokens to user identities via the external
// identity provider. It has no side effects.
type AuthService interface {
	// ResolveUser exchanges the bearer token for a user ID. An empty or
	// unresolvable token yields ErrUnauthorized.
	ResolveUser(ctx context.Context, token string) (string, error)
}

type authService struct {
	baseURL        string
	serviceRoleKey string
	httpClient     *http.Client
}

// NewAuthService creates an AuthService talking to the identity provider at
// baseURL. The service role key is attached as the `apikey` header on every
// lookup.
func NewAuthService(baseURL, serviceRoleKey string, httpClient *http.Client) AuthService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &authService{
		baseURL:        strings.TrimRight(baseURL, "/"),
		serviceRoleKey: serviceRoleKey,
		httpClient:     httpClient,
	}
}

// identityResponse is the subset of the provider's user object we need.
type identityResponse struct {
	ID string `json:"id"`
}

func (s *authService) ResolveUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	if s.baseURL == "" {
		log.Println("ERROR: [AuthService] Identity provider URL is not configured.")
		return "", ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", s.serviceRoleKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("ERROR: [AuthService] Identity provider request failed: %v", err)
		return "", ErrUnauthorized
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("INFO: [AuthService] Identity provider rejected token (status %d).", resp.StatusCode)
		return "", ErrUnauthorized
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Printf("ERROR: [AuthService] Failed to read identity provider response: %v", err)
		return "", ErrUnauthorized
	}

	var identity identityResponse
	if err := json.Unmarshal(body, &identity); err != nil || identity.ID == "" {
		log.Printf("INFO: [AuthService] Identity provider returned no resolvable user.")
		return "", ErrUnauthorized
	}

	return identity.ID, nil
}
