package config

import (
	"os"
	"time"

	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/service/provider"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Duration decodes TOML strings such as "3s" or "500ms"
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V("value", string(text)))
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GatewayConfig tunes the provider calls made by the gateway
type GatewayConfig struct {
	ProbeTimeout   Duration `toml:"probe_timeout"`
	ForwardTimeout Duration `toml:"forward_timeout"`
}

// IndexingConfig tunes the bulk indexing pipeline
type IndexingConfig struct {
	EmbedTimeout Duration `toml:"embed_timeout"`
	SourceType   string   `toml:"source_type"`
}

// AppConfig is the optional TOML tuning file
type AppConfig struct {
	Gateway  GatewayConfig        `toml:"gateway"`
	Indexing IndexingConfig       `toml:"indexing"`
	Search   usecase.SearchConfig `toml:"search"`
}

// DefaultAppConfig returns the values used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Gateway: GatewayConfig{
			ProbeTimeout:   Duration(provider.DefaultHealthTimeout),
			ForwardTimeout: Duration(provider.DefaultChatTimeout),
		},
		Indexing: IndexingConfig{
			EmbedTimeout: Duration(provider.DefaultEmbedTimeout),
			SourceType:   types.SourceTypeFAQ.String(),
		},
		Search: usecase.DefaultSearchConfig(),
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Gateway.ProbeTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "gateway.probe_timeout must be positive")
	}
	if a.Gateway.ForwardTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "gateway.forward_timeout must be positive")
	}
	if a.Indexing.EmbedTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "indexing.embed_timeout must be positive")
	}
	if err := types.SourceType(a.Indexing.SourceType).Validate(); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid indexing.source_type", goerr.V("source_type", a.Indexing.SourceType))
	}
	if err := a.Search.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid search section", goerr.V("cause", err.Error()))
	}
	return nil
}

// SourceType is the default source type for indexing and seeding
func (a *AppConfig) SourceType() types.SourceType {
	return types.SourceType(a.Indexing.SourceType)
}

// ProviderOptions turns the timeouts into provider client options
func (a *AppConfig) ProviderOptions() []provider.Option {
	return []provider.Option{
		provider.WithHealthTimeout(a.Gateway.ProbeTimeout.Duration()),
		provider.WithChatTimeout(a.Gateway.ForwardTimeout.Duration()),
		provider.WithEmbedTimeout(a.Indexing.EmbedTimeout.Duration()),
	}
}

// LoadAppConfiguration loads a TOML file over the defaults. Keys missing from
// the file keep their default value.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// App holds the --config flag
type App struct {
	path string
}

func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML tuning file for gateway, indexing and search",
			Sources:     cli.EnvVars("CONCIERGE_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the file if one is set, otherwise returns the defaults
func (a *App) Configure() (*AppConfig, error) {
	if a.path == "" {
		return DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(a.path)
}
