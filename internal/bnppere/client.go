package bnppere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/banking"
)

const DefaultEndpoint = "https://personeo.epargne-retraite-entreprises.bnpparibas.com"

// Client talks to the Personeo API. One session token per Fetch, the
// provider invalidates tokens aggressively so there is no point caching it.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient() *Client {
	return NewClientWithEndpoint(DefaultEndpoint)
}

func NewClientWithEndpoint(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

type dataResponse struct {
	Cards      []banking.RawCard      `json:"cards"`
	Operations []banking.RawOperation `json:"operations"`
}

func (c *Client) Fetch(ctx context.Context, login, password string) ([]banking.RawCard, []banking.RawOperation, error) {
	token, err := c.login(ctx, login, password)
	if err != nil {
		return nil, nil, err
	}

	klog.Infoln("Logged in to provider, fetching cards and operations")

	var data dataResponse

	err = c.getJSON(ctx, "/api/s/v1/data?login="+login, token, &data)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching provider data: %w", err)
	}

	klog.Infof("Fetched %d cards and %d operations from provider\n", len(data.Cards), len(data.Operations))

	return data.Cards, data.Operations, nil
}

func (c *Client) login(ctx context.Context, login, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/s/v1/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	rs, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error logging in to provider: %w", err)
	}
	defer rs.Body.Close()

	if rs.StatusCode == http.StatusUnauthorized || rs.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: provider returned %s", ErrAuthentication, rs.Status)
	}

	if rs.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider login returned %s", rs.Status)
	}

	var lr loginResponse

	err = json.NewDecoder(rs.Body).Decode(&lr)
	if err != nil {
		return "", fmt.Errorf("error parsing provider login response: %w", err)
	}

	if lr.Token == "" {
		return "", fmt.Errorf("%w: provider returned an empty token", ErrAuthentication)
	}

	return lr.Token, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	rs, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()

	if rs.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %s", rs.Status)
	}

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(bodyBytes, out)
}
