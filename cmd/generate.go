package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelwuwar/CardGener/internal/artwork"
	"github.com/michaelwuwar/CardGener/internal/card"
)

func newGenerateCmd() *cobra.Command {
	var (
		cardsFile    string
		name         string
		rules        string
		classType    string
		outputDir    string
		providerName string
		width        int
		height       int
		delay        int
		overwrite    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate card artwork through an AI image provider",
		Long: `Generates one artwork image per card through the configured provider.

Cards come from a JSON file (--cards), or a single card can be described
inline with --name, --rules, and --class.`,
		Example: `  # Generate artwork for a batch of cards
  cardgener generate --cards cards.json --output artwork/

  # Generate a single image
  cardgener generate --name "Shadow Strike" --rules "Deal 3 damage." --class Ninja

  # Use Stability instead of the default provider
  cardgener generate --cards cards.json --provider stability`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []card.Record
			switch {
			case cardsFile != "":
				var err error
				records, err = card.ReadBatch(cardsFile)
				if err != nil {
					return err
				}
			case name != "":
				records = []card.Record{{
					CardName:  name,
					RulesText: rules,
					ClassType: classType,
				}}
			default:
				return fmt.Errorf("either --cards or --name is required")
			}

			batchErrs := card.ValidateBatch(records)
			valid := make([]card.Record, 0, len(records))
			for i, rec := range records {
				if err, ok := batchErrs[i]; ok {
					slog.Error("Skipping invalid card", "index", i, "error", err)
					continue
				}
				valid = append(valid, rec)
			}
			if len(valid) == 0 {
				return fmt.Errorf("no valid cards in batch")
			}
			records = valid

			provider, err := artwork.New(providerName)
			if err != nil {
				return err
			}
			gen := artwork.NewGenerator(provider)

			results := gen.GenerateBatch(cmd.Context(), records, artwork.Options{
				OutputDir:    outputDir,
				Width:        width,
				Height:       height,
				Overwrite:    overwrite,
				RequestDelay: time.Duration(delay) * time.Second,
			})

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					slog.Error("Artwork generation failed", "card", res.Card.CardName, "error", res.Err)
					continue
				}
				slog.Info("Artwork generated", "card", res.Card.CardName, "path", res.Path)
			}
			if failed == len(results) {
				return fmt.Errorf("all %d cards failed", failed)
			}
			if failed > 0 {
				slog.Warn("Batch finished with failures", "failed", failed, "total", len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cardsFile, "cards", "", "JSON file with card records")
	cmd.Flags().StringVar(&name, "name", "", "single card name (alternative to --cards)")
	cmd.Flags().StringVar(&rules, "rules", "", "single card rules text")
	cmd.Flags().StringVar(&classType, "class", "", "single card class (Ninja, Warrior, Wizard, Ranger, Guardian)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "artwork", "artwork output directory")
	cmd.Flags().StringVar(&providerName, "provider", "pollinations", "artwork provider (pollinations or stability)")
	cmd.Flags().IntVar(&width, "width", 1024, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 1024, "image height in pixels")
	cmd.Flags().IntVar(&delay, "delay", 2, "minimum seconds between provider requests")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing artwork files")

	return cmd
}
