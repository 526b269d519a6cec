package commands

import (
	"os"

	"bookmirror/internal/extract"
	"bookmirror/internal/race"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderRecords(records []extract.SearchRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Author", "Title", "Year", "Language", "Pages", "Size", "Ext", "Download"})
	for _, rec := range records {
		title := rec.Title
		if rec.Series != "" {
			title = rec.Series + ": " + title
		}
		t.AppendRow(table.Row{
			rec.ID,
			rec.Author,
			title,
			rec.Year,
			rec.Language,
			rec.Pages,
			rec.Size,
			rec.Extension,
			rec.Download,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Author", WidthMax: 30},
		{Name: "Title", WidthMax: 50},
	})
	t.Render()
}

func renderFailures(failures []race.Failure) {
	if len(failures) == 0 {
		return
	}
	t := newTable()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"Mirror", "Error"})
	for _, f := range failures {
		t.AppendRow(table.Row{f.Mirror, f.Error})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", WidthMax: 80},
	})
	t.Render()
}

func renderFeed(records []extract.FeedRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"Title", "Size", "Ext", "Published", "Link"})
	for _, rec := range records {
		published := ""
		if rec.Published != nil {
			published = rec.Published.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{rec.Title, rec.Size, rec.Extension, published, rec.Link})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: 50},
	})
	t.Render()
}
