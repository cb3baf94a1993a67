package caption

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"filesort/internal/logging"
	"filesort/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultModel       = "gpt-4o-mini"
	defaultPrompt      = "Give a one word generic description of what is present in the image"
	defaultJPEGQuality = 85
	maxResponseTokens  = 10
)

// Config captures the runtime settings required to talk to the vision model.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Prompt            string
	TimeoutSeconds    int
	MaxWidth          int
	JPEGQuality       int
	RequestsPerMinute int
}

// Client captions images through an OpenAI-compatible chat completion API.
type Client struct {
	cfg     Config
	api     *openai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option customizes the client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger attaches a logger used for caption failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient constructs a caption client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = defaultPrompt
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = defaultJPEGQuality
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	options := clientOptions{httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&options)
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = options.httpClient

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Client{
		cfg:     cfg,
		api:     openai.NewClientWithConfig(apiCfg),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.NewComponentLogger(options.logger, "caption"),
	}
}

// Caption implements Captioner. Every failure is logged and reported as
// ok == false.
func (c *Client) Caption(ctx context.Context, data []byte) (string, bool) {
	raw, err := c.Describe(ctx, data)
	if err != nil {
		logging.WithContext(ctx, c.logger).Warn("caption unavailable; image goes to others",
			logging.Error(err),
		)
		return "", false
	}
	label, ok := NormalizeLabel(raw)
	if !ok {
		logging.WithContext(ctx, c.logger).Warn("caption response had no usable word",
			logging.String("response", raw),
		)
		return "", false
	}
	return label, true
}

// Describe sends the image to the model and returns its raw text answer.
func (c *Client) Describe(ctx context.Context, data []byte) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "captioning", "describe", "API key not configured", nil)
	}
	if len(data) == 0 {
		return "", services.Wrap(services.ErrValidation, "captioning", "describe", "empty image", nil)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", services.Wrap(services.ErrTimeout, "captioning", "rate limit", "wait for request slot", err)
	}

	url, err := c.dataURL(data)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "captioning", "prepare image", "image could not be prepared", err)
	}

	req := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxResponseTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: c.cfg.Prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    url,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		marker := services.ErrExternalTool
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500) {
			marker = services.ErrTransient
		}
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, "captioning", "chat completion", "vision request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "captioning", "chat completion", "response contained no choices", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) dataURL(data []byte) (string, error) {
	prepared, err := prepareImage(data, c.cfg.MaxWidth, c.cfg.JPEGQuality)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(prepared)), nil
}
