package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultURL = "http://localhost:2345"

	DefaultHealthTimeout = 3 * time.Second
	DefaultChatTimeout   = 5 * time.Second
	DefaultEmbedTimeout  = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for logs
	maxErrorBody = 4 * 1024
)

type client struct {
	baseURL       string
	httpClient    *http.Client
	healthTimeout time.Duration
	chatTimeout   time.Duration
	embedTimeout  time.Duration
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient sets the HTTP client used for every provider call
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		cl.httpClient = c
	}
}

func WithHealthTimeout(d time.Duration) Option {
	return func(cl *client) {
		cl.healthTimeout = d
	}
}

func WithChatTimeout(d time.Duration) Option {
	return func(cl *client) {
		cl.chatTimeout = d
	}
}

func WithEmbedTimeout(d time.Duration) Option {
	return func(cl *client) {
		cl.embedTimeout = d
	}
}

// New creates a provider client for baseURL
func New(baseURL string, opts ...Option) (Service, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, goerr.New("provider URL must be http or https", goerr.V("url", baseURL))
	}

	c := &client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		healthTimeout: DefaultHealthTimeout,
		chatTimeout:   DefaultChatTimeout,
		embedTimeout:  DefaultEmbedTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) URL() string {
	return c.baseURL
}

func transportError(err error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(fmt.Errorf("%w: %w", model.ErrTransport, err), msg, opts...)
}

// do sends one request bounded by timeout and returns the body of a 2xx reply
func (c *client) do(ctx context.Context, method, path string, payload any, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal request", goerr.V("url", url))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err, "failed to send request",
			goerr.V("url", url),
			goerr.V("timeout", timeout.String()),
		)
	}
	defer safe.DrainClose(ctx, resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, "failed to read response", goerr.V("url", url))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, goerr.Wrap(model.ErrTransport, "provider returned non-2xx status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(data)),
		)
	}

	return data, nil
}

func (c *client) Health(ctx context.Context) (*HealthResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/health", nil, c.healthTimeout)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", model.ErrTransport, err), "failed to decode health response",
			goerr.V("body", string(data)),
		)
	}
	return &resp, nil
}

func (c *client) Chat(ctx context.Context, req *ChatRequest) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodPost, "/chat", req, c.chatTimeout)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, goerr.Wrap(model.ErrTransport, "provider returned invalid JSON",
			goerr.V("body", string(data)),
		)
	}
	return json.RawMessage(data), nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	data, err := c.do(ctx, http.MethodPost, "/vectorize-batch", &vectorizeBatchRequest{Texts: texts}, c.embedTimeout)
	if err != nil {
		return nil, err
	}

	var resp vectorizeBatchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", model.ErrTransport, err), "failed to decode vectorize response")
	}
	return resp.Vectors, nil
}
