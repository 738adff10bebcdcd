package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HTTPBackend speaks to an external HTTPS identity API: ticket verification
// and name resolution are plain POST calls authenticated with a short-lived
// HS256 bearer token, signed the way the reference JWT-issuing server in
// this stack signs its service-to-service tokens.
type HTTPBackend struct {
	baseURL      string
	bearerSecret []byte
	httpClient   *http.Client
}

// NewHTTPBackend builds a backend pointed at baseURL, authenticating with a
// bearer token signed using bearerSecret (read from an environment-provided
// secret per the deployment's configuration, never hardcoded).
func NewHTTPBackend(baseURL, bearerSecret string) *HTTPBackend {
	return &HTTPBackend{
		baseURL:      baseURL,
		bearerSecret: []byte(bearerSecret),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *HTTPBackend) signServiceToken() (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "matchmakingd",
		Subject:   "auth-backend",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.bearerSecret)
}

func (b *HTTPBackend) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, err := b.signServiceToken()
	if err != nil {
		return fmt.Errorf("sign service token: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckCredentials pings the identity provider's health endpoint.
func (b *HTTPBackend) CheckCredentials(ctx context.Context) error {
	return b.doJSON(ctx, http.MethodGet, "/v1/health", nil, nil)
}

// VerifyAuthTicket exchanges an opaque session ticket for an account id.
func (b *HTTPBackend) VerifyAuthTicket(ctx context.Context, ticket []byte) (uint64, error) {
	var resp struct {
		AccountID uint64 `json:"account_id"`
	}
	req := struct {
		Ticket string `json:"ticket"`
	}{Ticket: base64.StdEncoding.EncodeToString(ticket)}

	if err := b.doJSON(ctx, http.MethodPost, "/v1/tickets/verify", req, &resp); err != nil {
		return 0, err
	}
	return resp.AccountID, nil
}

// GetPlayerNames resolves display names for the given account ids.
func (b *HTTPBackend) GetPlayerNames(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	var resp struct {
		Names map[uint64]string `json:"names"`
	}
	req := struct {
		IDs []uint64 `json:"ids"`
	}{IDs: ids}

	if err := b.doJSON(ctx, http.MethodPost, "/v1/players/names", req, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}
