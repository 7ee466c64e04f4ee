package provider

import (
	"context"
	"encoding/json"
)

// Service is the external conversational provider
type Service interface {
	// Health calls GET /health
	Health(ctx context.Context) (*HealthResponse, error)

	// Chat calls POST /chat and returns the provider body untouched
	Chat(ctx context.Context, req *ChatRequest) (json.RawMessage, error)

	// EmbedBatch calls POST /vectorize-batch; the result is index aligned
	// with texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// URL is the provider base URL
	URL() string
}

// HealthResponse is the body of GET /health. Status is "healthy",
// "unhealthy" or "degraded".
type HealthResponse struct {
	Status string `json:"status"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message   string  `json:"message"`
	SessionID string  `json:"sessionId"`
	UserRole  string  `json:"userRole"`
	Timestamp string  `json:"timestamp"`
	AuthToken *string `json:"auth_token" masq:"secret"`
}

type vectorizeBatchRequest struct {
	Texts []string `json:"texts"`
}

type vectorizeBatchResponse struct {
	Vectors [][]float32 `json:"vectors"`
}
