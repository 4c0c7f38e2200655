package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// postJSON posts the request body to the endpoint with bearer auth and
// returns the raw response. A non-2xx status comes back as an error with the
// body intact so callers can log what the endpoint said.
func (c *Client) postJSON(ctx context.Context, reqID, endpoint string, body any) ([]byte, int, error) {
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("llm.post.request", "req_id", reqID, "endpoint", endpoint, "body_bytes", len(bs))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("llm.post.failed",
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("llm.post.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"body_bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("openai status %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
