package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

const (
	// PollInterval is how often the world feed is re-read while waiting.
	PollInterval = 250 * time.Millisecond
	// WorldTimeout is how long to wait for an expected world event.
	WorldTimeout = 10 * time.Second
)

type playerEnvelope struct {
	Player *actor.Player   `json:"player"`
	World  *world.Snapshot `json:"world,omitempty"`
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// CreatePlayer registers a new player and returns it.
func CreatePlayer(ctx context.Context, client *http.Client, baseURL, name string) (*actor.Player, error) {
	status, data, err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/players", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("create player returned %d: %s", status, string(data))
	}
	var env playerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode player: %w", err)
	}
	if env.Player == nil {
		return nil, fmt.Errorf("create player returned no player")
	}
	return env.Player, nil
}

// GetPlayer loads a player record.
func GetPlayer(ctx context.Context, client *http.Client, baseURL, id string) (*actor.Player, error) {
	status, data, err := doJSON(ctx, client, http.MethodGet, baseURL+"/v1/players/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get player returned %d: %s", status, string(data))
	}
	var env playerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode player: %w", err)
	}
	return env.Player, nil
}

// PostAction runs one action and returns the HTTP status with the decoded result.
func PostAction(ctx context.Context, client *http.Client, baseURL string, req action.Request) (int, *action.Result, error) {
	status, data, err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/action", req)
	if err != nil {
		return status, nil, err
	}
	var res action.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return status, nil, fmt.Errorf("action returned %d with unreadable body: %s", status, string(data))
	}
	return status, &res, nil
}

// GetWorld reads the world snapshot.
func GetWorld(ctx context.Context, client *http.Client, baseURL string) (*world.Snapshot, error) {
	status, data, err := doJSON(ctx, client, http.MethodGet, baseURL+"/v1/world", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("world returned %d: %s", status, string(data))
	}
	var snap world.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode world: %w", err)
	}
	return &snap, nil
}

// PollForWorldEvent waits until a feed line containing text appears.
func PollForWorldEvent(ctx context.Context, client *http.Client, baseURL, text string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		snap, err := GetWorld(ctx, client, baseURL)
		if err != nil {
			return err
		}
		for _, e := range snap.Events {
			if strings.Contains(e.Event, text) {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for world event containing %q", text)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
