package internal

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/starford/folio/internal/store"
)

// Status prints the most recent sync runs as a table.
func Status(ctx context.Context, limit int, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}

	db, err := store.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	runs, err := db.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(app.out, "no sync runs recorded")
		return nil
	}
	renderRuns(app, runs)
	return nil
}

func renderRuns(app *application, runs []store.RunRow) {
	t := table.NewWriter()
	t.SetOutputMirror(app.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Started", "Took", "Projects", "About", "Vault", "Settings", "Failures", "Checksum"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond),
			r.Counts["projects"],
			r.Counts["about"],
			r.Counts["vault"],
			r.Counts["settings"],
			failureSummary(r.Failures),
			shortSum(r.Checksum),
		})
	}
	t.Render()
}

func failureSummary(failures map[string]string) string {
	if len(failures) == 0 {
		return "-"
	}
	names := make([]string, 0, len(failures))
	for _, c := range []string{"projects", "about", "vault", "settings"} {
		if _, ok := failures[c]; ok {
			names = append(names, c)
		}
	}
	return strings.Join(names, ",")
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
