package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/catalog"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var jsonOutput bool

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAssets(w io.Writer, records []*asset.Record) error {
	if jsonOutput {
		out := make([]api.Asset, 0, len(records))
		for _, r := range records {
			out = append(out, api.NewAsset(r))
		}
		return writeJSON(w, out)
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.Label, r.TagsString(), r.Locator})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "LABEL", "TAGS", "URL").
		Rows(rows...)
	_, err := fmt.Fprintf(w, "%s\n%d assets\n", t.Render(), len(records))
	return err
}

func printCategories(w io.Writer, cats []catalog.Category) error {
	if jsonOutput {
		return writeJSON(w, cats)
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.Name, c.Label, strconv.Itoa(c.Count)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CATEGORY", "LABEL", "COUNT").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
