package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ChatResponder produces the reply to a validated chat turn
type ChatResponder interface {
	Forward(ctx context.Context, turn *model.ChatTurn) *model.ChatReply
}

var (
	_ ChatResponder = (*GatewayUseCase)(nil)
	_ ChatResponder = EchoResponder{}
)

type ChatUseCase struct {
	responder ChatResponder
}

func NewChatUseCase(responder ChatResponder) *ChatUseCase {
	return &ChatUseCase{responder: responder}
}

// Send validates turn and hands it to the configured responder. Only
// validation fails; responder problems come back as degraded replies.
func (uc *ChatUseCase) Send(ctx context.Context, turn *model.ChatTurn) (*model.ChatReply, error) {
	if turn == nil {
		return nil, goerr.Wrap(model.ErrValidation, "chat turn is required")
	}
	if err := turn.Validate(); err != nil {
		return nil, err
	}
	return uc.responder.Forward(ctx, turn), nil
}

const echoSessionID = "echo-session"

type echoReply struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Error     bool   `json:"error"`
}

// EchoResponder answers without contacting any provider
type EchoResponder struct{}

func (EchoResponder) Forward(_ context.Context, turn *model.ChatTurn) *model.ChatReply {
	sessionID := turn.SessionID
	if sessionID == "" {
		sessionID = echoSessionID
	}

	data, err := json.Marshal(&echoReply{
		Response:  "Echo: " + turn.Message,
		SessionID: sessionID,
		Error:     false,
	})
	if err != nil {
		return model.NewDegradedReply(turn.SessionID, model.ForwardFailedMessage, time.Now())
	}
	return model.NewRelayedReply(data)
}
