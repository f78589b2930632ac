package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/metrics"
)

// strictDirective is appended to the question on the second attempt.
// It is the only difference between the two attempts.
const strictDirective = "\n\nIMPORTANT: your output must be valid JSON conforming to the response schema, with no surrounding text."

// Client issues single completion requests to the provider with an
// enforced output-schema contract. It never retries; the retry policy
// lives one level up, in the retry controller.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	schema      map[string]interface{}
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// Config contains configuration for the completion client
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Schema is the structured-output contract passed to the provider
	Schema map[string]interface{}
}

// NewClient creates a new completion client
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1500
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "completion-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Completion provider circuit state changed")
		},
	})

	return &Client{
		endpoint:    config.Endpoint,
		apiKey:      config.APIKey,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		schema:      config.Schema,
		httpClient:  &http.Client{Timeout: config.Timeout},
		breaker:     breaker,
	}
}

// Configured reports whether the upstream credential is present. The
// handler turns a missing credential into a 503 without any network call.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Complete sends exactly one request to the provider: the system
// instruction, a user turn with the assembled context and verbatim
// question, and the machine-enforced output schema. When strict is true
// the user content is suffixed with the valid-JSON directive. The
// returned payload is syntactically valid JSON; structural validation
// happens in the schema validator.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, strict bool) (json.RawMessage, error) {
	if strict {
		userPrompt += strictDirective
	}

	request := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if c.schema != nil {
		request.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "structured_advisory_response",
				Strict: true,
				Schema: c.schema,
			},
		}
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, request)
	})
	duration := time.Since(start)
	metrics.ObserveCompletionLatency(duration.Seconds())

	if err != nil {
		log.Warn().
			Err(err).
			Bool("strict", strict).
			Dur("latency", duration).
			Msg("Completion request failed")
		return nil, err
	}
	chatResp := result.(*ChatResponse)

	log.Debug().
		Str("model", chatResp.Model).
		Int("prompt_tokens", chatResp.Usage.PromptTokens).
		Int("completion_tokens", chatResp.Usage.CompletionTokens).
		Bool("strict", strict).
		Dur("latency", duration).
		Msg("Completion request finished")

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}
	content := extractJSON(chatResp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("empty completion content")
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("completion content is not valid JSON")
	}

	return json.RawMessage(content), nil
}

// send performs the HTTP round trip. It runs inside the circuit
// breaker, so repeated provider outages short-circuit to an immediate
// transport failure instead of hammering a dead upstream.
func (c *Client) send(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, errResp.Error.Message)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &chatResp, nil
}

// extractJSON strips a markdown code fence if the provider wrapped the
// payload in one despite the instructions.
func extractJSON(content string) string {
	b := []byte(content)

	start := -1
	if idx := bytes.Index(b, []byte("```json")); idx >= 0 {
		start = idx + 7
	} else if idx := bytes.Index(b, []byte("```")); idx >= 0 {
		start = idx + 3
	}

	if start >= 0 {
		if idx := bytes.Index(b[start:], []byte("```")); idx >= 0 {
			b = b[start : start+idx]
		}
	}

	return string(bytes.TrimSpace(b))
}
