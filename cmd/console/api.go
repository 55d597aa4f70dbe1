package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/realm-engine/internal/handlers"
	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

// APIClient talks to the realm-engine HTTP API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: baseURL, client: client}
}

// do sends a JSON request and decodes the response into out. Statuses not in
// accept are reported using the API's error body.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any, accept ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	for _, status := range accept {
		if resp.StatusCode == status {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}
	}

	var errorResp handlers.ErrorResponse
	if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}
	return fmt.Errorf("API returned status %d: %s", resp.StatusCode, errorResp.Error)
}

func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, http.StatusOK)
}

func (c *APIClient) CreatePlayer(ctx context.Context, name string) (*actor.Player, error) {
	var resp handlers.PlayerResponse
	if err := c.do(ctx, http.MethodPost, "/v1/players", handlers.CreatePlayerRequest{Name: name}, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return resp.Player, nil
}

func (c *APIClient) GetPlayer(ctx context.Context, id string) (*handlers.PlayerResponse, error) {
	var resp handlers.PlayerResponse
	if err := c.do(ctx, http.MethodGet, "/v1/players/"+id, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Act runs an action. Domain failures come back as a Result with Error set.
func (c *APIClient) Act(ctx context.Context, req action.Request) (*action.Result, error) {
	var res action.Result
	err := c.do(ctx, http.MethodPost, "/v1/action", req, &res,
		http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *APIClient) World(ctx context.Context) (*world.Snapshot, error) {
	var snap world.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/world", nil, &snap, http.StatusOK); err != nil {
		return nil, err
	}
	return &snap, nil
}
