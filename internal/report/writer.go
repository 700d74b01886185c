package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// SaveYAML writes the report to dir as a timestamped YAML file and
// returns the path.
func SaveYAML(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	filename := fmt.Sprintf("run_%s.yaml", r.StartedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// Table renders a per-card console summary.
func Table(r *Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Card", "Artwork", "Render", "Overlay", "Stitched"})

	for _, c := range r.Cards {
		stitched := ""
		if c.Stitched {
			stitched = "yes"
		}
		tw.AppendRow(table.Row{
			c.CardName,
			stageCell(c.Artwork),
			stageCell(c.Render),
			stageCell(c.Overlay),
			stitched,
		})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d cards", r.Total),
		"", "", "",
		fmt.Sprintf("%d ok / %d failed", r.Succeeded, r.Failed),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func stageCell(s StageResult) string {
	if s.Status == StageFailed && s.Reason != "" {
		return fmt.Sprintf("failed: %s", truncate(s.Reason, 40))
	}
	return string(s.Status)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
