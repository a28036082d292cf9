package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNoContactAddress = errors.New("user has no contact address")

// UserDirectory resolves e-mail addresses from the user service.
type UserDirectory struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewUserDirectory(baseURL string, timeout time.Duration, logger *slog.Logger) *UserDirectory {
	return &UserDirectory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "user_directory"),
	}
}

type userResponse struct {
	Email string `json:"email"`
}

// ContactAddress calls GET /api/v1/users/{id}.
func (d *UserDirectory) ContactAddress(ctx context.Context, userID string) (string, error) {
	reqURL := d.baseURL + "/api/v1/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("user directory: create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user directory: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user directory: unexpected status %d", resp.StatusCode)
	}
	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("user directory: decode json: %w", err)
	}
	if body.Email == "" {
		return "", ErrNoContactAddress
	}

	d.log.DebugContext(ctx, "contact address resolved", slog.String("user_id", userID))
	return body.Email, nil
}
