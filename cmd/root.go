package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardgener",
		Short: "Card production pipeline from structured definitions to print sheets",
		Long: `CardGener turns structured card definitions into finished card images.

It synthesizes CardConjurer JSON documents from templates, generates
artwork through AI image providers, renders cards in the browser,
composites artwork into the rendered frames, and stitches the results
into print-ready sheets.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newStitchCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newParseCmd())

	return cmd
}
