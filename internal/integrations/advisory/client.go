// Package advisory talks to the generative model that writes the
// narrative parts of a plan: tax purchases, goal feasibility and chat.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/Dan9191/savings-planner/internal/models"
	"github.com/sirupsen/logrus"
)

// Client is an HTTP client for an Ollama-compatible model server
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	log        *logrus.Logger
	maxRetries int
	backoff    time.Duration
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewClient initializes a new advisory client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.AdvisoryURL, "/"),
		model:    cfg.AdvisoryModel,
		httpClient: &http.Client{
			Timeout: cfg.AdvisoryTimeout,
		},
		log:        log,
		maxRetries: cfg.AdvisoryMaxRetries,
		backoff:    time.Second,
	}
}

// GetAdvisory asks the model for the full plan narrative.
func (c *Client) GetAdvisory(ctx context.Context, req models.AdvisoryRequest) (*models.Advisory, error) {
	prompt := buildAnalysisPrompt(req)

	var advisory models.Advisory
	err := c.withRetry(ctx, "analysis", func() error {
		text, err := c.generate(ctx, prompt)
		if err != nil {
			return err
		}
		advisory = models.Advisory{}
		return decodeJSON(text, &advisory)
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"goals":       len(req.Goals),
		"feasibility": len(advisory.GoalFeasibility),
	}).Info("Advisory received")
	return &advisory, nil
}

// Resimulate asks for a single-goal feasibility with a new savings figure.
func (c *Client) Resimulate(ctx context.Context, req models.ResimulationRequest) (*models.ResimulationResult, error) {
	prompt, err := buildResimulationPrompt(req)
	if err != nil {
		return nil, err
	}

	var result models.ResimulationResult
	err = c.withRetry(ctx, "resimulation", func() error {
		text, err := c.generate(ctx, prompt)
		if err != nil {
			return err
		}
		result = models.ResimulationResult{}
		return decodeJSON(text, &result)
	})
	if err != nil {
		return nil, err
	}

	result.GoalIndex = req.Goal.Index
	result.NewMonthlySavings = req.NewMonthlySavings
	return &result, nil
}

// Chat answers a follow-up question about a plan. The history is supplied
// by the caller on every call.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	planJSON, err := json.Marshal(req.Plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	messages := []chatMessage{
		{Role: "user", Content: fmt.Sprintf(chatSystemPromptTemplate, planJSON)},
		{Role: "assistant", Content: chatAcknowledgement},
	}
	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: chatRole(turn.Role), Content: turn.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Message})

	var reply string
	err = c.withRetry(ctx, "chat", func() error {
		text, err := c.chat(ctx, messages)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("empty chat reply")
		}
		reply = text
		return nil
	})
	return reply, err
}

// withRetry runs op up to maxRetries+1 times with linear backoff. The
// final error wraps models.ErrAdvisoryUnavailable.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w: %v", op, models.ErrAdvisoryUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		c.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt + 1,
			"error":   lastErr,
		}).Warn("Advisory call failed")

		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrAdvisoryUnavailable, lastErr)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var genResp generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Format: "json",
		Stream: false,
	}, &genResp); err != nil {
		return "", err
	}
	return genResp.Response, nil
}

func (c *Client) chat(ctx context.Context, messages []chatMessage) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "/api/chat", chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeJSON pulls the outermost JSON object out of model text.
func decodeJSON(text string, out interface{}) error {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return fmt.Errorf("no JSON found in model response")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func chatRole(role string) string {
	switch role {
	case "model", "assistant":
		return "assistant"
	default:
		return "user"
	}
}
