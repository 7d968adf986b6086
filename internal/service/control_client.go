package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"amorbot/internal/fleet"
)

// ControlClient talks to the remote control authority. It implements both
// fleet.ControlSource and fleet.PermissionSource.
type ControlClient struct {
	BaseURL string
	Token   string

	httpClient *http.Client
}

func NewControlClient(baseURL, token string) *ControlClient {
	return &ControlClient{
		BaseURL:    baseURL,
		Token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type controlFlagsResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    fleet.ControlFlags `json:"data"`
}

type profilePermissionResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    fleet.ProfilePermission `json:"data"`
}

// FetchControlFlags pulls the fleet-wide switches.
func (c *ControlClient) FetchControlFlags(ctx context.Context) (fleet.ControlFlags, error) {
	var res controlFlagsResponse
	if err := c.getJSON(ctx, "/api/machine/flags", &res); err != nil {
		return fleet.ControlFlags{}, err
	}
	if !res.Success {
		return fleet.ControlFlags{}, fmt.Errorf("control authority refused: %s", res.Message)
	}
	return res.Data, nil
}

// FetchProfilePermission asks whether AI generation is allowed for one
// profile (by its external display id).
func (c *ControlClient) FetchProfilePermission(ctx context.Context, displayID string) (fleet.ProfilePermission, error) {
	path := "/api/profiles/" + url.PathEscape(displayID) + "/ai-permission"

	var res profilePermissionResponse
	if err := c.getJSON(ctx, path, &res); err != nil {
		return fleet.ProfilePermission{}, err
	}
	if !res.Success {
		return fleet.ProfilePermission{}, fmt.Errorf("control authority refused: %s", res.Message)
	}
	return res.Data, nil
}

func (c *ControlClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control authority returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
