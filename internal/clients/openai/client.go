package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caseforge/caseforge-backend/internal/platform/envutil"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/services"
)

// Client turns raw automation code lines into structured step fields through
// the OpenAI chat completions API. It satisfies services.StepInferencer; the
// rest of the system treats its output like any manually-entered step.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func New(baseLog *logger.Logger) (*Client, error) {
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	timeout := envutil.Duration("OPENAI_TIMEOUT", 60*time.Second)
	return &Client{
		log:        baseLog.With("client", "OpenAI"),
		baseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		apiKey:     apiKey,
		model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
	}, nil
}

const inferSystemPrompt = `You describe browser automation code for test documentation.
For each input code line, produce an object with:
  "action_description": one short imperative sentence describing the action,
  "input_data": the literal data the line enters, or null,
  "expected_result": the assertion the line makes, or null.
Respond with a JSON object {"steps": [...]} with exactly one entry per input line, in order.`

type inferredPayload struct {
	Steps []struct {
		ActionDescription string  `json:"action_description"`
		InputData         *string `json:"input_data"`
		ExpectedResult    *string `json:"expected_result"`
	} `json:"steps"`
}

func (c *Client) InferSteps(ctx context.Context, codeLines []string) ([]services.InferredStep, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": inferSystemPrompt},
			{"role": "user", "content": strings.Join(codeLines, "\n")},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	var payload inferredPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("openai inference decode error: %w", err)
	}
	if len(payload.Steps) != len(codeLines) {
		return nil, fmt.Errorf("openai returned %d steps for %d lines", len(payload.Steps), len(codeLines))
	}
	out := make([]services.InferredStep, len(payload.Steps))
	for i, s := range payload.Steps {
		out[i] = services.InferredStep{
			ActionDescription: s.ActionDescription,
			InputData:         s.InputData,
			ExpectedResult:    s.ExpectedResult,
		}
	}
	return out, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var he *httpError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusRequestTimeout ||
			he.StatusCode == http.StatusTooManyRequests ||
			(he.StatusCode >= 500 && he.StatusCode <= 599)
	}
	return false
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := 0.2 * base.Seconds()
	v := base.Seconds() - delta + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	backoff := time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !retryable(err) || attempt == c.maxRetries {
			return err
		}
		c.log.Warn("openai request retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(backoff)):
		}
		if backoff < 8*time.Second {
			backoff *= 2
		}
	}
	return nil
}
