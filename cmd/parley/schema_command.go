package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/negotiate"
)

func newSchemaCommand(cc *commandContext) *cobra.Command {
	var (
		auto          bool
		maxIterations int
		outFile       string
	)

	cmd := &cobra.Command{
		Use:   "schema <description>",
		Short: "Negotiate a JSON schema from a plain-language description",
		Long: "Schema asks the model to draft a JSON schema for the described data and\n" +
			"then loops with you: accept the draft, request changes, inspect it, or\n" +
			"start over with a new description.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auto && !isTerminal(os.Stdin) {
				return fmt.Errorf("schema negotiation is interactive; pass --auto when stdin is not a terminal")
			}

			built, err := cc.buildProvider(cmd.Context())
			if err != nil {
				return err
			}

			var reviewer negotiate.Reviewer = &consoleReviewer{out: cmd.OutOrStdout()}
			if auto {
				reviewer = negotiate.AutoReviewer{}
			}

			defaults := cc.negotiateDefaults()
			n := negotiate.Negotiator{
				Completer:       built.Completer,
				Reviewer:        reviewer,
				MaxIterations:   defaults.MaxIterations,
				MaxInteractions: defaults.MaxInteractions,
			}
			if cmd.Flags().Changed("max-iterations") {
				n.MaxIterations = maxIterations
			}

			if isTerminal(os.Stdout) {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("Drafting with "+built.Config.Name+"..."))
			}

			res, err := n.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !res.Satisfied {
				return fmt.Errorf("no schema accepted after %d draft(s)", res.Iterations)
			}

			data, err := json.MarshalIndent(res.Schema.Map(), "", "  ")
			if err != nil {
				return err
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, append(data, '\n'), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s after %d draft(s)\n", outFile, res.Iterations)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "accept the first structurally valid draft without review")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "maximum drafting rounds")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the accepted schema JSON to a file")

	return cmd
}
