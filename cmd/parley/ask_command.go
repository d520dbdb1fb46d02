package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/prompts"
)

// defaultAskInteractions bounds the ask exchange when neither the flags nor
// the configuration set a budget.
const defaultAskInteractions = 3

func newAskCommand(cc *commandContext) *cobra.Command {
	var (
		vars            []string
		asJSON          bool
		schemaFile      string
		strict          bool
		encoding        string
		maxInteractions int
		maxWords        int
		maxChars        int
		trim            bool
		trace           bool
		stream          bool
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send one prompt and print the validated reply",
		Long: "Ask sends a single prompt through the retry loop and prints the first\n" +
			"reply that passes validation. Template placeholders like {topic} are\n" +
			"filled from repeated --var flags before anything is sent.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseVars(vars)
			if err != nil {
				return err
			}
			prompt := prompts.Fill(args[0], values)

			opts, err := askOptions(cc, cmd, schemaFile, strict, encoding, maxInteractions, maxWords, maxChars, trim, trace)
			if err != nil {
				return err
			}

			built, err := cc.buildProvider(cmd.Context())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("stream") {
				opts.Stream = &stream
			} else if built.Config.Stream {
				enabled := true
				opts.Stream = &enabled
			}

			var res *dialog.Result
			askErr := withSpinner(cmd.Context(), "Waiting for "+built.Config.Name+"...", func(ctx context.Context) error {
				var err error
				if asJSON || opts.Schema != nil {
					res, err = dialog.AskJSON(ctx, built.Completer, prompt, opts)
				} else {
					res, err = dialog.AskText(ctx, built.Completer, prompt, opts)
				}
				return err
			})
			if askErr != nil {
				return askErr
			}

			printTrace(cmd.ErrOrStderr(), res)

			if !res.Answered {
				return fmt.Errorf("no valid response after %d interaction(s)", res.Interactions)
			}

			if res.Object != nil {
				out, err := json.MarshalIndent(res.Object, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			}

			if isTerminal(os.Stderr) {
				summary := fmt.Sprintf("%d interaction(s), %d tokens", res.Interactions, res.Tokens.Total())
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(summary))
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "request a JSON object answer")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "JSON schema file constraining the answer (implies --json)")
	cmd.Flags().BoolVar(&strict, "strict", false, "ask the provider to enforce the schema exactly")
	cmd.Flags().StringVar(&encoding, "encoding", "auto", "schema transport: auto, text, schema or json")
	cmd.Flags().IntVar(&maxInteractions, "max-interactions", 0, "total exchanges allowed, including retries")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "word bound for text answers (0 = unbounded)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "character bound for text answers (0 = unbounded)")
	cmd.Flags().BoolVar(&trim, "trim", false, "compact history to boundary turns before each retry")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the final conversation to stderr")
	cmd.Flags().BoolVar(&stream, "stream", false, "override the provider's streaming preference (replies are still read whole)")

	return cmd
}

// askOptions merges configuration defaults with explicitly set flags. A flag
// the user touched wins even when set to its zero value.
func askOptions(cc *commandContext, cmd *cobra.Command, schemaFile string, strict bool, encoding string, maxInteractions, maxWords, maxChars int, trim, trace bool) (dialog.Options, error) {
	defaults := cc.askDefaults()

	opts := dialog.Options{
		MaxInteractions: defaults.MaxInteractions,
		MaxWords:        defaults.MaxWords,
		MaxChars:        defaults.MaxChars,
		TrimHistory:     defaults.TrimHistory,
		Strict:          strict,
		FullTrace:       trace,
	}

	flags := cmd.Flags()
	if flags.Changed("max-interactions") {
		opts.MaxInteractions = maxInteractions
	}
	if flags.Changed("max-words") {
		opts.MaxWords = maxWords
	}
	if flags.Changed("max-chars") {
		opts.MaxChars = maxChars
	}
	if flags.Changed("trim") {
		opts.TrimHistory = trim
	}
	if opts.MaxInteractions == 0 {
		opts.MaxInteractions = defaultAskInteractions
	}

	mode, err := parseEncoding(encoding)
	if err != nil {
		return dialog.Options{}, err
	}
	opts.Encoding = mode

	if schemaFile != "" {
		data, err := os.ReadFile(schemaFile)
		if err != nil {
			return dialog.Options{}, fmt.Errorf("read schema: %w", err)
		}

		var s map[string]any
		if err := json.Unmarshal(data, &s); err != nil {
			return dialog.Options{}, fmt.Errorf("parse schema %s: %w", schemaFile, err)
		}
		opts.Schema = s
	}

	return opts, nil
}

func parseEncoding(s string) (dialog.EncodingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return dialog.EncodingAuto, nil
	case "text":
		return dialog.EncodingText, nil
	case "schema", "native-schema":
		return dialog.EncodingNativeSchema, nil
	case "json", "native-free":
		return dialog.EncodingNativeFree, nil
	}

	return 0, fmt.Errorf("unknown encoding %q (use auto, text, schema or json)", s)
}

// printTrace writes the final conversation when --trace captured one.
func printTrace(out io.Writer, res *dialog.Result) {
	if res.Trace == nil {
		return
	}

	for i := 0; i < res.Trace.Len(); i++ {
		m := res.Trace.At(i)
		fmt.Fprintf(out, "%s: %s\n", m.Role, m.Text)
	}
}
