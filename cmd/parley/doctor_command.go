package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/preflight"
	"github.com/parleykit/parley/pkg/providers"
)

func newDoctorCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the selected provider layer by layer",
		Long: "Doctor checks the provider stack from the bottom up: TCP reachability,\n" +
			"HTTP endpoint, credentials and model, and the full ask path. Every layer\n" +
			"is checked even when an earlier one fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pcfg, err := cc.providerConfig()
			if err != nil {
				return err
			}

			rep := preflight.Run(cmd.Context(), providers.Factory{}, pcfg)

			fmt.Fprintln(cmd.OutOrStdout(), diagnosticsTable(rep))
			fmt.Fprintln(cmd.OutOrStdout(), rep.Recommendation)

			if !rep.Healthy() {
				return fmt.Errorf("provider %q failed its diagnostics", pcfg.Name)
			}

			return nil
		},
	}
}

func diagnosticsTable(rep *preflight.Report) string {
	rows := make([][]string, 0, len(rep.Checks))
	for _, c := range rep.Checks {
		mark := okStyle.Render("✓")
		if !c.OK {
			mark = failStyle.Render("✗")
		}
		rows = append(rows, []string{c.Name, mark, c.Detail})
	}

	return renderTable([]string{"CHECK", "", "DETAIL"}, rows)
}
