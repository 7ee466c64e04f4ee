package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultUserRole is applied when a chat turn does not name a role
const DefaultUserRole = "user"

// ISO8601Milli matches the millisecond precision UTC timestamps the provider
// exchanges
const ISO8601Milli = "2006-01-02T15:04:05.000Z07:00"

const (
	// UnavailableMessage is the degraded reply text when the provider is not ready
	UnavailableMessage = "I apologize, but the orchestrator service is currently unavailable. Please try again later."
	// ForwardFailedMessage is the degraded reply text when a forward failed
	ForwardFailedMessage = "I apologize, but I am currently unable to process your request. Please try again later."
)

// ChatTurn is one inbound user message
type ChatTurn struct {
	Message   string
	SessionID string
	UserRole  string
	// Authorization is the raw inbound Authorization header; the bearer
	// credential in it is forwarded without interpretation.
	Authorization string
}

// Validate checks the turn and applies the default role
func (t *ChatTurn) Validate() error {
	if strings.TrimSpace(t.Message) == "" {
		return goerr.Wrap(ErrValidation, "message is required")
	}
	if t.UserRole == "" {
		t.UserRole = DefaultUserRole
	}
	return nil
}

// DegradedReply is returned to the caller instead of an error whenever the
// provider cannot answer
type DegradedReply struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Error     bool   `json:"error"`
}

// ChatReply is either the provider's payload relayed verbatim or a degraded
// reply
type ChatReply struct {
	raw      json.RawMessage
	degraded *DegradedReply
}

// NewRelayedReply wraps a provider body
func NewRelayedReply(raw json.RawMessage) *ChatReply {
	return &ChatReply{raw: raw}
}

// NewDegradedReply builds the fallback reply. An empty sessionID is replaced
// by an error-session token derived from now.
func NewDegradedReply(sessionID, message string, now time.Time) *ChatReply {
	if sessionID == "" {
		sessionID = fmt.Sprintf("error-session-%d", now.UnixMilli())
	}
	return &ChatReply{
		degraded: &DegradedReply{
			Response:  message,
			SessionID: sessionID,
			Timestamp: now.UTC().Format(ISO8601Milli),
			Error:     true,
		},
	}
}

func (r *ChatReply) IsDegraded() bool {
	return r.degraded != nil
}

// Degraded returns the fallback reply, or nil for a relayed one
func (r *ChatReply) Degraded() *DegradedReply {
	return r.degraded
}

// Body returns the bytes to send to the caller. A relayed body is returned
// exactly as the provider sent it.
func (r *ChatReply) Body() ([]byte, error) {
	if r.degraded != nil {
		data, err := json.Marshal(r.degraded)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal degraded reply")
		}
		return data, nil
	}
	return r.raw, nil
}

func (r *ChatReply) MarshalJSON() ([]byte, error) {
	return r.Body()
}
