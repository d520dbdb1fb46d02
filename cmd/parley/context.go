package main

import (
	"context"
	"strings"
	"sync"

	"github.com/parleykit/parley/pkg/config"
	"github.com/parleykit/parley/pkg/ollama"
	"github.com/parleykit/parley/pkg/providers"
)

// commandContext carries shared flag state and the lazily loaded
// configuration across commands.
type commandContext struct {
	configFlag   *string
	providerFlag *string
	probeFlag    *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag, providerFlag, probeFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		providerFlag: providerFlag,
		probeFlag:    probeFlag,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		path, err := config.Locate(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}

		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		c.config = cfg
	})

	return c.config, c.configErr
}

// providerConfig resolves the selected provider entry, with the --probe flag
// overriding the configured probe mode.
func (c *commandContext) providerConfig() (providers.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return providers.Config{}, err
	}

	pcfg, err := cfg.Provider(*c.providerFlag)
	if err != nil {
		return providers.Config{}, err
	}

	if mode := strings.TrimSpace(*c.probeFlag); mode != "" {
		parsed, err := providers.ParseProbeMode(mode)
		if err != nil {
			return providers.Config{}, err
		}
		pcfg.Probe = parsed
	}

	return pcfg, nil
}

// buildProvider creates a verified completer for the selected provider.
func (c *commandContext) buildProvider(ctx context.Context) (*providers.Built, error) {
	pcfg, err := c.providerConfig()
	if err != nil {
		return nil, err
	}

	return providers.Create(ctx, pcfg)
}

func (c *commandContext) askDefaults() config.AskDefaults {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.AskDefaults{}
	}

	return cfg.Ask
}

func (c *commandContext) negotiateDefaults() config.NegotiateDefaults {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.NegotiateDefaults{}
	}

	return cfg.Negotiate
}

// ollamaBaseURL picks the Ollama endpoint: the selected provider when it is
// an ollama entry, then the first ollama entry, then the built-in default.
// Commands that only talk to Ollama work without any configuration file.
func (c *commandContext) ollamaBaseURL() string {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ollama.DefaultBaseURL
	}

	if pcfg, err := cfg.Provider(*c.providerFlag); err == nil && pcfg.Kind == providers.KindOllama && pcfg.BaseURL != "" {
		return pcfg.BaseURL
	}

	for _, p := range cfg.Providers {
		if p.Kind == providers.KindOllama && p.BaseURL != "" {
			return p.BaseURL
		}
	}

	return ollama.DefaultBaseURL
}
