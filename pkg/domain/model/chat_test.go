package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestChatTurn_Validate(t *testing.T) {
	t.Run("applies default role", func(t *testing.T) {
		turn := &model.ChatTurn{Message: "hello"}
		gt.NoError(t, turn.Validate())
		gt.Value(t, turn.UserRole).Equal(model.DefaultUserRole)
	})

	t.Run("keeps explicit role", func(t *testing.T) {
		turn := &model.ChatTurn{Message: "hello", UserRole: "agent"}
		gt.NoError(t, turn.Validate())
		gt.Value(t, turn.UserRole).Equal("agent")
	})

	t.Run("rejects blank message", func(t *testing.T) {
		turn := &model.ChatTurn{Message: "   "}
		err := turn.Validate()
		gt.Bool(t, errors.Is(err, model.ErrValidation)).True()
	})
}

func TestNewDegradedReply(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 123_000_000, time.UTC)

	t.Run("synthesizes session id", func(t *testing.T) {
		reply := model.NewDegradedReply("", model.UnavailableMessage, now)
		gt.Bool(t, reply.IsDegraded()).True()
		gt.Value(t, reply.Degraded().SessionID).Equal("error-session-1714555800123")
		gt.Value(t, reply.Degraded().Timestamp).Equal("2024-05-01T09:30:00.123Z")
		gt.Bool(t, reply.Degraded().Error).True()
	})

	t.Run("keeps caller session id", func(t *testing.T) {
		reply := model.NewDegradedReply("sess-1", model.ForwardFailedMessage, now)
		body, err := reply.Body()
		gt.NoError(t, err).Required()

		var decoded map[string]any
		gt.NoError(t, json.Unmarshal(body, &decoded)).Required()
		gt.Value(t, decoded["sessionId"]).Equal("sess-1")
		gt.Value(t, decoded["response"]).Equal(model.ForwardFailedMessage)
		gt.Value(t, decoded["error"]).Equal(true)
	})
}

func TestChatReply_RelayedBodyIsVerbatim(t *testing.T) {
	raw := json.RawMessage(`{ "response": "hi",  "sessionId": "s1", "extra": [1, 2] }`)
	reply := model.NewRelayedReply(raw)

	body, err := reply.Body()
	gt.NoError(t, err)
	gt.Value(t, string(body)).Equal(string(raw))
	gt.Bool(t, reply.IsDegraded()).False()
}

func TestNewGatewayHealth(t *testing.T) {
	gt.Value(t, model.NewGatewayHealth(model.GatewayStatus{Running: true, Ready: true}).Status).Equal(model.HealthHealthy)
	gt.Value(t, model.NewGatewayHealth(model.GatewayStatus{Running: true}).Status).Equal(model.HealthUnhealthy)
	gt.Value(t, model.NewGatewayHealth(model.GatewayStatus{}).Status).Equal(model.HealthUnhealthy)
}
