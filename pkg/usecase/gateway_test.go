package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type fakeProvider struct {
	mu           sync.Mutex
	healthStatus string
	healthErr    error
	healthGate   chan struct{}
	chatErr      error
	chatBody     string
	lastChat     *provider.ChatRequest
	chatCtxErr   error

	healthCalls atomic.Int32
	chatCalls   atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		healthStatus: "healthy",
		chatBody:     `{"response":"Sure, here is how.","sessionId":"s-1"}`,
	}
}

func (f *fakeProvider) set(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) Health(ctx context.Context) (*provider.HealthResponse, error) {
	f.healthCalls.Add(1)

	f.mu.Lock()
	gate, status, err := f.healthGate, f.healthStatus, f.healthErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &provider.HealthResponse{Status: status}, nil
}

func (f *fakeProvider) Chat(ctx context.Context, req *provider.ChatRequest) (json.RawMessage, error) {
	f.chatCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastChat = req
	f.chatCtxErr = ctx.Err()
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return json.RawMessage(f.chatBody), nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) URL() string {
	return "http://orchestrator.test:2345"
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 123_000_000, time.UTC)

func newGateway(p *fakeProvider) *usecase.GatewayUseCase {
	g := usecase.NewGatewayUseCase(p, nil)
	usecase.SetGatewayClock(g, func() time.Time { return fixedNow })
	return g
}

func TestGateway_Probe(t *testing.T) {
	t.Run("healthy provider is ready", func(t *testing.T) {
		p := newFakeProvider()
		g := newGateway(p)

		gt.Value(t, g.Status().State).Equal(types.ReadinessUnknown)
		gt.Value(t, g.Probe(context.Background())).Equal(types.ReadinessReady)

		status := g.Status()
		gt.Bool(t, status.Running).True()
		gt.Bool(t, status.Ready).True()
		gt.Value(t, status.URL).Equal("http://orchestrator.test:2345")
		gt.Value(t, status.LastProbeAt).NotNil()
		gt.Value(t, g.Health().Status).Equal(model.HealthHealthy)
	})

	t.Run("reachable but degraded provider is unavailable", func(t *testing.T) {
		p := newFakeProvider()
		p.healthStatus = "degraded"
		g := newGateway(p)

		gt.Value(t, g.Probe(context.Background())).Equal(types.ReadinessUnavailable)
		status := g.Status()
		gt.Bool(t, status.Running).True()
		gt.Bool(t, status.Ready).False()
		gt.Value(t, g.Health().Status).Equal(model.HealthUnhealthy)
	})

	t.Run("unreachable provider is unavailable", func(t *testing.T) {
		p := newFakeProvider()
		p.healthErr = model.ErrTransport
		g := newGateway(p)

		gt.Value(t, g.Start(context.Background())).Equal(types.ReadinessUnavailable)
		status := g.Status()
		gt.Bool(t, status.Running).False()
		gt.Bool(t, status.Ready).False()
	})

	t.Run("status and health are read-only", func(t *testing.T) {
		p := newFakeProvider()
		g := newGateway(p)

		_ = g.Status()
		_ = g.Health()
		gt.Value(t, p.healthCalls.Load()).Equal(int32(0))
	})
}

func TestGateway_ForwardRelaysVerbatim(t *testing.T) {
	p := newFakeProvider()
	g := newGateway(p)
	g.Start(context.Background())

	reply := g.Forward(context.Background(), &model.ChatTurn{
		Message:       "How do I file a claim?",
		SessionID:     "s-1",
		UserRole:      "agent",
		Authorization: "Bearer tok-123",
	})

	gt.Bool(t, reply.IsDegraded()).False()
	body, err := reply.Body()
	gt.NoError(t, err).Required()
	gt.Value(t, string(body)).Equal(`{"response":"Sure, here is how.","sessionId":"s-1"}`)

	req := p.lastChat
	gt.Value(t, req.Message).Equal("How do I file a claim?")
	gt.Value(t, req.SessionID).Equal("s-1")
	gt.Value(t, req.UserRole).Equal("agent")
	gt.Value(t, req.Timestamp).Equal("2024-05-01T09:30:00.123Z")
	gt.Value(t, req.AuthToken).NotNil()
	gt.Value(t, *req.AuthToken).Equal("tok-123")
}

func TestGateway_ForwardWithoutCredential(t *testing.T) {
	p := newFakeProvider()
	g := newGateway(p)

	reply := g.Forward(context.Background(), &model.ChatTurn{
		Message:       "hello",
		Authorization: "Basic dXNlcjpwYXNz",
	})

	gt.Bool(t, reply.IsDegraded()).False()
	gt.Bool(t, p.lastChat.AuthToken == nil).True()
	gt.Value(t, p.lastChat.UserRole).Equal(model.DefaultUserRole)
	gt.String(t, p.lastChat.SessionID).NotEqual("")
}

func TestGateway_ReadyDoesNotReprobe(t *testing.T) {
	p := newFakeProvider()
	g := newGateway(p)
	g.Start(context.Background())

	for i := 0; i < 3; i++ {
		reply := g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		gt.Bool(t, reply.IsDegraded()).False()
	}

	gt.Value(t, p.healthCalls.Load()).Equal(int32(1))
	gt.Value(t, p.chatCalls.Load()).Equal(int32(3))
}

func TestGateway_UnavailableDegrades(t *testing.T) {
	t.Run("caller session id", func(t *testing.T) {
		p := newFakeProvider()
		p.healthErr = model.ErrTransport
		g := newGateway(p)

		reply := g.Forward(context.Background(), &model.ChatTurn{Message: "hi", SessionID: "abc"})
		gt.Bool(t, reply.IsDegraded()).True()
		d := reply.Degraded()
		gt.Value(t, d.Response).Equal(model.UnavailableMessage)
		gt.Value(t, d.SessionID).Equal("abc")
		gt.Value(t, d.Timestamp).Equal("2024-05-01T09:30:00.123Z")
		gt.Bool(t, d.Error).True()
		gt.Value(t, p.chatCalls.Load()).Equal(int32(0))
	})

	t.Run("synthesized session id", func(t *testing.T) {
		p := newFakeProvider()
		p.healthErr = model.ErrTransport
		g := newGateway(p)

		reply := g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		gt.Value(t, reply.Degraded().SessionID).Equal("error-session-1714555800123")
	})

	t.Run("each forward re-probes while unavailable", func(t *testing.T) {
		p := newFakeProvider()
		p.healthErr = model.ErrTransport
		g := newGateway(p)

		g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		gt.Value(t, p.healthCalls.Load()).Equal(int32(2))

		p.set(func(f *fakeProvider) { f.healthErr = nil })
		reply := g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		gt.Bool(t, reply.IsDegraded()).False()
		gt.Value(t, g.Status().State).Equal(types.ReadinessReady)
	})
}

func TestGateway_ForwardFailureInvalidates(t *testing.T) {
	p := newFakeProvider()
	g := newGateway(p)
	g.Start(context.Background())

	p.set(func(f *fakeProvider) { f.chatErr = model.ErrTransport })
	reply := g.Forward(context.Background(), &model.ChatTurn{Message: "hi", SessionID: "s-9"})

	gt.Bool(t, reply.IsDegraded()).True()
	gt.Value(t, reply.Degraded().Response).Equal(model.ForwardFailedMessage)
	gt.Value(t, reply.Degraded().SessionID).Equal("s-9")
	gt.Value(t, g.Status().State).Equal(types.ReadinessUnavailable)

	p.set(func(f *fakeProvider) { f.chatErr = nil })
	reply = g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
	gt.Bool(t, reply.IsDegraded()).False()
	gt.Value(t, p.healthCalls.Load()).Equal(int32(2))
}

func TestGateway_ConcurrentForwardsShareOneProbe(t *testing.T) {
	p := newFakeProvider()
	gate := make(chan struct{})
	p.healthGate = gate
	g := newGateway(p)

	const callers = 10
	var wg sync.WaitGroup
	replies := make([]*model.ChatReply, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i] = g.Forward(context.Background(), &model.ChatTurn{Message: "hi"})
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.healthCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// let the other callers join the in-flight probe
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	gt.Value(t, p.healthCalls.Load()).Equal(int32(1))
	gt.Value(t, p.chatCalls.Load()).Equal(int32(callers))
	for _, r := range replies {
		gt.Bool(t, r.IsDegraded()).False()
	}
}

func TestGateway_DetachedFromCallerCancellation(t *testing.T) {
	p := newFakeProvider()
	g := newGateway(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := g.Forward(ctx, &model.ChatTurn{Message: "hi"})
	gt.Bool(t, reply.IsDegraded()).False()
	gt.NoError(t, p.chatCtxErr)
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{name: "bearer", header: "Bearer abc.def", want: "abc.def", found: true},
		{name: "empty header", header: ""},
		{name: "prefix only", header: "Bearer "},
		{name: "lowercase scheme", header: "bearer abc"},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := usecase.ExtractBearer(context.Background(), tc.header)
			if !tc.found {
				gt.Bool(t, got == nil).True()
				return
			}
			gt.Value(t, got).NotNil()
			gt.Value(t, *got).Equal(tc.want)
		})
	}
}
