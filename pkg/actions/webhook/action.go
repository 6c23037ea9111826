// Package webhook delivers a workflow notification to an external HTTP
// endpoint, with bounded retry on transport errors and 5xx responses.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/template"
)

const defaultTimeoutSeconds = 30

type Action struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration

	client *http.Client
}

func NewAction(config map[string]any) (*Action, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("missing or invalid 'url' in configuration")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, exists := config["headers"]; exists {
		if headersMap, ok := headersConfig.(map[string]any); ok {
			for key, value := range headersMap {
				if strVal, ok := value.(string); ok {
					headers[key] = strVal
				}
			}
		}
	}

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Action{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		client:  &http.Client{},
	}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("action", "webhook", "url", a.URL)

	body, err := template.RenderString(a.Body, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render webhook body: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, a.Method, a.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var respBody any
	if err := json.Unmarshal(respBytes, &respBody); err != nil {
		respBody = string(respBytes)
	}

	logger.Info("webhook delivered", "status_code", resp.StatusCode)

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        respBody,
	}, nil
}
