package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michaelwuwar/CardGener/internal/cardlang"
)

func newParseCmd() *cobra.Command {
	var (
		model   string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "parse [description]",
		Short: "Parse a natural-language card description into a card record",
		Long: `Sends a free-form card description to Gemini and prints the
structured card record as JSON. Requires GEMINI_API_KEY.`,
		Example: `  cardgener parse "A ninja action card that deals 3 damage for 2 resources"

  # Append the record to a cards file
  cardgener parse "A defensive guardian wall" --out cards.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := cardlang.New()
			if model != "" {
				parser = parser.WithModel(model)
			}

			rec, err := parser.Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "    ")
			if err != nil {
				return fmt.Errorf("failed to marshal card: %w", err)
			}

			if outFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outFile, out, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Gemini model name override")
	cmd.Flags().StringVar(&outFile, "out", "", "write the record to a file instead of stdout")

	return cmd
}
