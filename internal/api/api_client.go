package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// ApiClient talks JSON to another service of the platform.
type ApiClient struct {
	baseURL string
	client  *http.Client
}

func NewApiClient(baseURL string, timeout time.Duration) *ApiClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10

	return &ApiClient{
		baseURL: baseURL,
		client:  &http.Client{Transport: transport, Timeout: timeout},
	}
}

// Get decodes the JSON body of baseURL+path into result. A 401 or 403 maps to
// models.ErrUnauthorized; any other non-2xx status becomes a *StatusError.
func (c *ApiClient) Get(ctx context.Context, path, bearer string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("GET %s: %w", path, models.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *ApiClient) Close() {
	c.client.CloseIdleConnections()
}

type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: status=%d, body=%s", e.Status, e.Body)
}
