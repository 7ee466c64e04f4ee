package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/metrics"
	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/insurdesk/concierge/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

const bearerPrefix = "Bearer "

// GatewayUseCase supervises the conversational provider and forwards chat
// turns to it. No method returns an error; provider failures become degraded
// replies.
type GatewayUseCase struct {
	provider provider.Service
	metrics  *metrics.Metrics
	now      func() time.Time

	mu          sync.RWMutex
	state       types.Readiness
	reachable   bool
	lastProbeAt *time.Time

	probes singleflight.Group
}

func NewGatewayUseCase(svc provider.Service, m *metrics.Metrics) *GatewayUseCase {
	return &GatewayUseCase{
		provider: svc,
		metrics:  m,
		now:      time.Now,
		state:    types.ReadinessUnknown,
	}
}

// Start runs the initial readiness probe
func (g *GatewayUseCase) Start(ctx context.Context) types.Readiness {
	state := g.Probe(ctx)
	if state.IsReady() {
		logging.From(ctx).Info("Orchestrator provider is ready", "url", g.provider.URL())
	} else {
		logging.From(ctx).Warn("Orchestrator provider is not ready, chat will degrade until it recovers",
			"url", g.provider.URL())
	}
	return state
}

// Probe checks provider health and records the outcome. Concurrent callers
// share a single in-flight health request.
func (g *GatewayUseCase) Probe(ctx context.Context) types.Readiness {
	// the shared probe must not die with whichever caller started it
	detached := context.WithoutCancel(ctx)
	v, _, _ := g.probes.Do("probe", func() (any, error) {
		return g.probe(detached), nil
	})
	return v.(types.Readiness)
}

func (g *GatewayUseCase) probe(ctx context.Context) types.Readiness {
	logger := logging.From(ctx)

	resp, err := g.provider.Health(ctx)
	reachable := err == nil
	state := types.ReadinessUnavailable

	switch {
	case err != nil:
		logger.Warn("Orchestrator health probe failed", "url", g.provider.URL(), "error", err)
	case resp.Status != model.HealthHealthy:
		logger.Warn("Orchestrator reported not healthy", "url", g.provider.URL(), "status", resp.Status)
	default:
		state = types.ReadinessReady
	}

	probedAt := g.now()
	g.mu.Lock()
	g.state = state
	g.reachable = reachable
	g.lastProbeAt = &probedAt
	g.mu.Unlock()

	g.metrics.ObserveProbe(state)
	return state
}

func (g *GatewayUseCase) readiness() types.Readiness {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *GatewayUseCase) invalidate() {
	g.mu.Lock()
	g.state = types.ReadinessUnavailable
	g.mu.Unlock()
}

// Forward relays turn to the provider. When the provider is not known to be
// ready it is probed first.
func (g *GatewayUseCase) Forward(ctx context.Context, turn *model.ChatTurn) *model.ChatReply {
	logger := logging.From(ctx)

	if !g.readiness().IsReady() {
		if state := g.Probe(ctx); !state.IsReady() {
			g.metrics.ObserveForward(true)
			return model.NewDegradedReply(turn.SessionID, model.UnavailableMessage, g.now())
		}
	}

	token := extractBearer(ctx, turn.Authorization)

	sessionID := turn.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userRole := turn.UserRole
	if userRole == "" {
		userRole = model.DefaultUserRole
	}

	req := &provider.ChatRequest{
		Message:   turn.Message,
		SessionID: sessionID,
		UserRole:  userRole,
		Timestamp: g.now().UTC().Format(model.ISO8601Milli),
		AuthToken: token,
	}

	auth := "missing"
	if token != nil {
		auth = "present"
	}
	logger.Info("Forwarding chat to orchestrator",
		"session_id", sessionID,
		"auth", auth,
		slog.Any("request", req))

	raw, err := g.provider.Chat(context.WithoutCancel(ctx), req)
	if err != nil {
		logger.Error("Failed to forward chat to orchestrator",
			"session_id", sessionID,
			"error", err)
		g.invalidate()
		g.metrics.ObserveForward(true)
		return model.NewDegradedReply(turn.SessionID, model.ForwardFailedMessage, g.now())
	}

	g.metrics.ObserveForward(false)
	return model.NewRelayedReply(raw)
}

// extractBearer returns the credential of a "Bearer <token>" header, or nil
func extractBearer(ctx context.Context, header string) *string {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		logging.From(ctx).Warn("No bearer token in chat request, forwarding without credential")
		return nil
	}
	return &token
}

// Status returns a snapshot of the gateway readiness
func (g *GatewayUseCase) Status() model.GatewayStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	status := model.GatewayStatus{
		Running: g.reachable,
		Ready:   g.state.IsReady(),
		URL:     g.provider.URL(),
		State:   g.state,
	}
	if g.lastProbeAt != nil {
		at := *g.lastProbeAt
		status.LastProbeAt = &at
	}
	return status
}

func (g *GatewayUseCase) Health() model.GatewayHealth {
	return model.NewGatewayHealth(g.Status())
}
