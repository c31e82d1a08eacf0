package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/rankline/internal/store"
)

const tabPadding = 2

//nolint:gochecknoglobals // Shared printer for grouped counts.
var printer = message.NewPrinter(language.English)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func renderItems(w io.Writer, items []store.Item) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "Rank\tTitle\tID\tUpdated")
	fmt.Fprintln(tw, "----\t-----\t--\t-------")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Rank, it.Title, it.ID, formatTime(it.UpdatedAt))
	}
	return tw.Flush()
}

func renderItem(w io.Writer, format string, item store.Item) error {
	if format == "json" {
		return writeJSON(w, item)
	}
	return renderItems(w, []store.Item{item})
}

type listRow struct {
	store.List

	Items int64 `json:"items"`
}

func renderLists(w io.Writer, rows []listRow) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tName\tItems\tCreated")
	fmt.Fprintln(tw, "--\t----\t-----\t-------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, printer.Sprintf("%d", r.Items), formatTime(r.CreatedAt))
	}
	return tw.Flush()
}
