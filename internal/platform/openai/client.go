package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/hansard-backend/internal/platform/httpx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

// Client is the structured-output surface used by the analysis steps.
type Client interface {
	// GenerateJSON runs a strict json_schema request. A provider-side refusal
	// is returned as *RefusalError (errors.Is(err, ErrRefusal) holds).
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// ErrRefusal marks a model refusal. It is distinct from schema or transport failures.
var ErrRefusal = errors.New("model refused")

type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return ErrRefusal.Error()
	}
	return ErrRefusal.Error() + ": " + e.Reason
}

func (e *RefusalError) Is(target error) bool { return target == ErrRefusal }

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type APIClient struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	httpClient  *http.Client
	maxRetries  int
}

func NewClient(log *logger.Logger) (*APIClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o"
	}

	timeoutSec := 180
	if v := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	// Generator calls degrade to defaults instead of retrying unless opted in.
	maxRetries := 0
	if v := strings.TrimSpace(os.Getenv("OPENAI_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	var temp *float64
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			temp = &f
		}
	}

	return &APIClient{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temp,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:  maxRetries,
	}, nil
}

// Model returns the configured generation model id.
func (c *APIClient) Model() string { return c.model }

func (c *APIClient) doOnce(ctx context.Context, method, path string, body io.Reader, contentType string, beta bool) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if beta {
		req.Header.Set("OpenAI-Beta", "assistants=v2")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do sends a JSON (or pre-encoded) body with retry on retryable failures.
func (c *APIClient) do(ctx context.Context, method, path string, payload []byte, contentType string, beta bool, out any) error {
	backoff := time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		resp, raw, err := c.doOnce(ctx, method, path, body, contentType, beta)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, body any, beta bool, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	return c.do(ctx, method, path, payload, "application/json", beta, out)
}

// -------------------- Responses API --------------------

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutput(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	refusal = strings.TrimSpace(resp.Refusal)
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				if refusal == "" {
					refusal = strings.TrimSpace(c.Refusal)
				}
				if refusal == "" {
					refusal = "refused"
				}
			}
		}
	}
	return out.String(), refusal
}

func (c *APIClient) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}

	req := responsesRequest{
		Model: c.model,
		Input: []responsesInput{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/responses", req, false, &resp); err != nil {
		return nil, err
	}
	jsonText, refusal := extractOutput(resp)
	if refusal != "" {
		return nil, &RefusalError{Reason: refusal}
	}
	if strings.TrimSpace(jsonText) == "" {
		return nil, fmt.Errorf("no output_text found in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	// Structured outputs can still carry a refusal field inside the payload.
	if r, ok := obj["refusal"].(string); ok && strings.TrimSpace(r) != "" {
		return nil, &RefusalError{Reason: r}
	}
	return obj, nil
}
