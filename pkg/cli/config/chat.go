package config

import (
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	ChatModeGateway = "gateway"
	ChatModeEcho    = "echo"
)

// Chat selects the chat strategy
type Chat struct {
	mode string
}

func (c *Chat) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "chat-mode",
			Usage:       "Chat strategy: gateway forwards to the provider, echo answers locally",
			Value:       ChatModeGateway,
			Sources:     cli.EnvVars("CONCIERGE_CHAT_MODE"),
			Destination: &c.mode,
		},
	}
}

func (c *Chat) Mode() string {
	return c.mode
}

// Options returns the usecase options for the selected mode. The gateway
// mode needs no option since the gateway is the default responder.
func (c *Chat) Options() ([]usecase.Option, error) {
	switch c.mode {
	case "", ChatModeGateway:
		return nil, nil
	case ChatModeEcho:
		return []usecase.Option{usecase.WithChatResponder(usecase.EchoResponder{})}, nil
	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid chat mode", goerr.V("mode", c.mode))
	}
}
