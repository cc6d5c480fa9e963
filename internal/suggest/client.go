// Package suggest talks to the remote language-model service that picks
// videos, guesses moods and writes usage insights. Every failure is
// returned as an error; callers treat any error as "no suggestion".
package suggest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrDisabled      = errors.New("suggestions disabled")
	ErrRateLimited   = errors.New("suggestion rate limit exceeded")
	ErrCircuitOpen   = errors.New("suggestion service unavailable")
	ErrUpstream      = errors.New("suggestion service error")
	ErrInvalidOutput = errors.New("invalid suggestion output")
)

const (
	anthropicVersion = "2023-06-01"
	userAgent        = "moodplay-backend/1.0"
	maxErrorBody     = 4 << 10
)

type Config struct {
	Enabled   bool          `env:"ENABLED" envDefault:"false"`
	APIKey    string        `env:"API_KEY"`
	BaseURL   string        `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
	Model     string        `env:"MODEL" envDefault:"claude-3-5-haiku-latest"`
	MaxTokens int           `env:"MAX_TOKENS" envDefault:"1024"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"20s"`

	// RatePerMinute and Burst bound outgoing calls.
	RatePerMinute float64 `env:"RATE_PER_MINUTE" envDefault:"30"`
	Burst         int     `env:"BURST" envDefault:"5"`

	BreakerFailures uint32        `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// Observer is told about every call, ok or not.
type Observer func(op, outcome string, d time.Duration)

type Client struct {
	cfg        Config
	logger     *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	observe    Observer
}

func NewClient(cfg Config, logger *zap.Logger, observe Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observe == nil {
		observe = func(string, string, time.Duration) {}
	}
	limit := rate.Limit(cfg.RatePerMinute / 60)
	if cfg.RatePerMinute <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		observe:    observe,
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "suggest",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("suggestion circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

// ask sends one prompt, decodes the reply into v and runs check on it.
func (c *Client) ask(ctx context.Context, op, system, prompt string, v any, check func() error) (err error) {
	start := time.Now()
	defer func() {
		c.observe(op, outcome(err), time.Since(start))
		if err != nil && !errors.Is(err, ErrDisabled) {
			c.logger.Warn("suggestion failed", zap.String("op", op), zap.Error(err))
		}
	}()

	if !c.Enabled() {
		return ErrDisabled
	}
	if !c.limiter.Allow() {
		return ErrRateLimited
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, system, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return err
	}
	if err := decodeJSON(text, v); err != nil {
		return err
	}
	return check()
}

func (c *Client) call(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiError
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" || block.Type == "" {
			sb.WriteString(block.Text)
		}
	}
	c.logger.Debug("suggestion response",
		zap.Int("input_tokens", out.Usage.InputTokens),
		zap.Int("output_tokens", out.Usage.OutputTokens))
	return sb.String(), nil
}

// decodeJSON pulls the first JSON object out of a model reply, tolerating
// code fences and surrounding prose.
func decodeJSON(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in reply", ErrInvalidOutput)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrInvalidOutput):
		return "invalid_output"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "upstream_error"
	}
}
