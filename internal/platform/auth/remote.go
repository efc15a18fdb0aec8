package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var ErrAuthServiceUnavailable = apperror.Unauthenticated("could not validate credentials")

const defaultRemoteTimeout = 5 * time.Second

// RemoteValidator delegates token validation to another deployment of the
// auth endpoints via POST {baseURL}/auth/validate-token.
type RemoteValidator struct {
	baseURL string
	client  *http.Client
}

func NewRemoteValidator(baseURL string, client *http.Client) *RemoteValidator {
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return &RemoteValidator{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type validateTokenResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

func (v *RemoteValidator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/auth/validate-token", nil)
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, ErrAuthServiceUnavailable.Message, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, apperror.Wrap(apperror.KindUnauthenticated, ErrAuthServiceUnavailable.Message,
			fmt.Errorf("auth service returned status %d", resp.StatusCode))
	}

	var body validateTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, ErrAuthServiceUnavailable.Message, err)
	}

	return identityFromResponse(body)
}

func identityFromResponse(body validateTokenResponse) (*Identity, error) {
	id := &Identity{Email: body.Email}
	var err error
	if id.UserID, err = uuid.Parse(body.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	if id.Role, err = ParseRole(body.Role); err != nil {
		return nil, ErrInvalidToken
	}
	return id, nil
}
