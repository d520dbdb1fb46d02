package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/ollama"
)

func newModelsCommand(cc *commandContext) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage models on an Ollama server",
	}

	cmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Ollama server URL (default: the configured ollama provider, then "+ollama.DefaultBaseURL+")")

	manager := func() *ollama.Manager {
		url := baseURL
		if url == "" {
			url = cc.ollamaBaseURL()
		}
		return ollama.New(url)
	}

	cmd.AddCommand(newModelsListCommand(manager))
	cmd.AddCommand(newModelsPullCommand(manager))
	cmd.AddCommand(newModelsDeleteCommand(manager))

	return cmd
}

func newModelsListCommand(manager func() *ollama.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := manager().List(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), modelTable(models))
			return nil
		},
	}
}

// modelTable renders the model list with sizes right-aligned and digests
// truncated to a readable prefix.
func modelTable(models []ollama.Model) string {
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.Name,
			fmtSize(m.Size),
			m.ModifiedAt.Format("2006-01-02 15:04"),
			runewidth.Truncate(m.Digest, 14, "…"),
		})
	}

	return renderTable([]string{"NAME", "SIZE", "MODIFIED", "DIGEST"}, rows, 2)
}

func newModelsPullCommand(manager func() *ollama.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <model>",
		Short: "Download a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := manager().Pull(cmd.Context(), name, pullProgress(cmd.ErrOrStderr())); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s\n", name)
			return nil
		},
	}
}

// pullProgress renders streamed pull updates: a byte progress bar for stages
// that report a total, a plain status line otherwise.
func pullProgress(out io.Writer) ollama.ProgressFunc {
	var bar *progressbar.ProgressBar
	var stage string

	return func(status string, completed, total int64) {
		if status != stage {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
			stage = status

			if total > 0 {
				bar = progressbar.NewOptions64(total,
					progressbar.OptionSetDescription(status),
					progressbar.OptionSetWriter(out),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetWidth(20),
					progressbar.OptionClearOnFinish(),
				)
			} else {
				fmt.Fprintln(out, status)
			}
		}

		if bar != nil {
			_ = bar.Set64(completed)
		}
	}
}

func newModelsDeleteCommand(manager func() *ollama.Manager) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <model>",
		Short: "Delete a model and list what remains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !yes {
				var confirmed bool
				if err := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().Title(fmt.Sprintf("Delete %s?", name)).Value(&confirmed),
				)).Run(); err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			remaining, err := manager().Delete(cmd.Context(), name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			fmt.Fprintln(cmd.OutOrStdout(), modelTable(remaining))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
