package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parleykit/parley/pkg/config"
	"github.com/parleykit/parley/pkg/ollama"
	"github.com/parleykit/parley/pkg/providers"
)

type wizardAnswers struct {
	Kind      string
	Name      string
	Model     string
	BaseURL   string
	APIKeyEnv string
	Probe     string
}

type kindDefault struct {
	Model   string
	EnvKey  string
	BaseURL string
}

var wizardDefaults = map[string]kindDefault{
	providers.KindOpenAI:     {Model: "gpt-4o-mini", EnvKey: "OPENAI_API_KEY"},
	providers.KindGroq:       {Model: "llama-3.3-70b-versatile", EnvKey: "GROQ_API_KEY"},
	providers.KindOpenRouter: {Model: "openrouter/auto", EnvKey: "OPENROUTER_API_KEY"},
	providers.KindVLLM:       {Model: "qwen2.5", BaseURL: "http://localhost:8000"},
	providers.KindOllama:     {Model: "llama3.2", BaseURL: ollama.DefaultBaseURL},
}

func newInitCommand() *cobra.Command {
	var (
		outFile string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(outFile); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", outFile)
			}

			answers, err := runWizard()
			if err != nil {
				return err
			}

			data, err := marshalWizardConfig(answers)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outFile, data, 0o600); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outFile)
			fmt.Fprintln(cmd.OutOrStdout(), `Try: parley ask "Say hello"`)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", config.DefaultFile, "file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func runWizard() (wizardAnswers, error) {
	var a wizardAnswers

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider kind").
			Options(
				huh.NewOption("OpenAI", providers.KindOpenAI),
				huh.NewOption("Groq", providers.KindGroq),
				huh.NewOption("OpenRouter", providers.KindOpenRouter),
				huh.NewOption("vLLM", providers.KindVLLM),
				huh.NewOption("Ollama", providers.KindOllama),
			).
			Value(&a.Kind),
	)).Run(); err != nil {
		return a, err
	}

	defaults := wizardDefaults[a.Kind]
	a.Name = a.Kind
	a.Model = defaults.Model
	a.BaseURL = defaults.BaseURL
	a.APIKeyEnv = defaults.EnvKey
	a.Probe = "full"

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Provider name").Value(&a.Name).Validate(requireValue),
		huh.NewInput().Title("Model").Value(&a.Model).Validate(requireValue),
		huh.NewInput().Title("Base URL (empty = kind default)").Value(&a.BaseURL),
		huh.NewInput().Title("API key env var (empty = none)").Value(&a.APIKeyEnv),
		huh.NewSelect[string]().
			Title("Probe on startup").
			Options(
				huh.NewOption("Full (one trivial completion)", "full"),
				huh.NewOption("Transport only (raw HTTP)", "transport"),
				huh.NewOption("Skip", "skip"),
			).
			Value(&a.Probe),
	)).Run(); err != nil {
		return a, err
	}

	return a, nil
}

// Marshal through dedicated structs so the generated file stays free of
// zero-value noise.
type configYAML struct {
	Providers []providerYAML `yaml:"providers"`
	Default   string         `yaml:"default,omitempty"`
}

type providerYAML struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"` //nolint:gosec // env var reference, not a secret
	Probe   string `yaml:"probe,omitempty"`
}

func marshalWizardConfig(a wizardAnswers) ([]byte, error) {
	p := providerYAML{
		Name:    a.Name,
		Kind:    a.Kind,
		Model:   a.Model,
		BaseURL: a.BaseURL,
		Probe:   a.Probe,
	}
	if env := strings.TrimSpace(a.APIKeyEnv); env != "" {
		p.APIKey = "${" + env + "}"
	}

	return yaml.Marshal(configYAML{Providers: []providerYAML{p}, Default: a.Name})
}
