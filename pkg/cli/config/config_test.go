package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/insurdesk/concierge/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concierge.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		check   func(t *testing.T, cfg *config.AppConfig)
	}{
		{
			name: "full file",
			content: `
[gateway]
probe_timeout = "1s"
forward_timeout = "8s"

[indexing]
embed_timeout = "1m"
source_type = "policy"

[search]
default_limit = 3
max_limit = 10
`,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.Gateway.ProbeTimeout.Duration()).Equal(time.Second)
				gt.Value(t, cfg.Gateway.ForwardTimeout.Duration()).Equal(8 * time.Second)
				gt.Value(t, cfg.Indexing.EmbedTimeout.Duration()).Equal(time.Minute)
				gt.Value(t, cfg.SourceType().String()).Equal("policy")
				gt.Value(t, cfg.Search.DefaultLimit).Equal(3)
				gt.Value(t, cfg.Search.MaxLimit).Equal(10)
				gt.Array(t, cfg.ProviderOptions()).Length(3)
			},
		},
		{
			name: "partial file keeps defaults",
			content: `
[gateway]
forward_timeout = "10s"
`,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.Gateway.ProbeTimeout.Duration()).Equal(3 * time.Second)
				gt.Value(t, cfg.Gateway.ForwardTimeout.Duration()).Equal(10 * time.Second)
				gt.Value(t, cfg.Indexing.EmbedTimeout.Duration()).Equal(30 * time.Second)
				gt.Value(t, cfg.SourceType().String()).Equal("faq")
				gt.Value(t, cfg.Search.DefaultLimit).Equal(5)
				gt.Value(t, cfg.Search.MaxLimit).Equal(20)
			},
		},
		{
			name: "bad duration",
			content: `
[gateway]
probe_timeout = "soon"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "default limit above max",
			content: `
[search]
default_limit = 30
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "invalid source type",
			content: `
[indexing]
source_type = "FAQ Items"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "zero timeout",
			content: `
[gateway]
probe_timeout = "0s"
`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			tt.check(t, cfg)
		})
	}
}

func TestLoadAppConfiguration_Missing(t *testing.T) {
	_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestApp_Configure(t *testing.T) {
	cfg, err := config.NewAppForTest("").Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, cfg).Equal(config.DefaultAppConfig())
	gt.NoError(t, cfg.Validate())
}
