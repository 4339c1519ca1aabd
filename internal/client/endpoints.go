package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dm/pidash/internal/model"
)

const (
	endpointStatus       = "/api/get_pi_data"
	endpointConfig       = "/api/get_config"
	endpointToggleConfig = "/api/toggle_config"
)

// ToggleRequest is the body of a toggle command, shared by the HTTP and push paths.
type ToggleRequest struct {
	Key string `json:"key"`
}

// GetStatus fetches the current status snapshot from /api/get_pi_data.
func (c *DefaultClient) GetStatus(ctx context.Context) (*model.StatusSnapshot, error) {
	body, err := c.doGet(ctx, endpointStatus)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}

	var result model.StatusSnapshot
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetStatus decode: %w", err)
	}
	result.Source = model.SourcePull
	result.FetchedAt = time.Now()
	return &result, nil
}

// GetConfig fetches the device configuration from /api/get_config.
func (c *DefaultClient) GetConfig(ctx context.Context) (model.ConfigMap, error) {
	body, err := c.doGet(ctx, endpointConfig)
	if err != nil {
		return nil, fmt.Errorf("GetConfig: %w", err)
	}

	var result model.ConfigMap
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GetConfig decode: %w", err)
	}
	return result, nil
}

// ToggleConfig asks the device to flip the boolean configuration value key.
// It returns once the device has answered.
func (c *DefaultClient) ToggleConfig(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("ToggleConfig: key must not be empty")
	}
	if err := c.doPostJSON(ctx, endpointToggleConfig, ToggleRequest{Key: key}); err != nil {
		return fmt.Errorf("ToggleConfig: %w", err)
	}
	return nil
}
