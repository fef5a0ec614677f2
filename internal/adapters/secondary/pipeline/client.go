// Package pipeline posts deployment notifications to the external
// deployment pipeline. The pipeline is expected to call back through
// the deployment status-update endpoint as it progresses.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"model-catalog-service/internal/config"
	"model-catalog-service/internal/core/domain"
	ports "model-catalog-service/internal/core/ports/output"
)

type client struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
}

func NewClient(cfg *config.PipelineConfig) ports.PipelinePublisher {
	if !cfg.Enabled {
		return &client{enabled: false}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &client{
		baseURL: cfg.URL,
		enabled: true,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *client) PublishDeploymentRequested(ctx context.Context, n domain.DeploymentNotification) error {
	return c.post(ctx, "/deployments/requested", n)
}

func (c *client) PublishDeploymentCancelled(ctx context.Context, deploymentID, reason string) error {
	payload := map[string]string{
		"deployment_id": deploymentID,
		"reason":        reason,
	}
	return c.post(ctx, "/deployments/cancelled", payload)
}

func (c *client) post(ctx context.Context, path string, payload interface{}) error {
	if !c.enabled {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to pipeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pipeline returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
