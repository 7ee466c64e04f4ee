package config

import (
	"net/http"
	"time"

	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Provider holds the conversational provider flags
type Provider struct {
	url string
}

func (p *Provider) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider-url",
			Category:    "Provider",
			Usage:       "Base URL of the conversational provider (health, chat, vectorize-batch)",
			Value:       provider.DefaultURL,
			Sources:     cli.EnvVars("CONCIERGE_PROVIDER_URL"),
			Destination: &p.url,
		},
	}
}

func (p *Provider) URL() string {
	return p.url
}

// Configure builds the provider client. One HTTP client is shared by every
// provider call; per call deadlines come from app.
func (p *Provider) Configure(app *AppConfig) (provider.Service, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	opts := append([]provider.Option{provider.WithHTTPClient(httpClient)}, app.ProviderOptions()...)
	svc, err := provider.New(p.url, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create provider client")
	}
	return svc, nil
}
