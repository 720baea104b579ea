package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"dorkmail/common"
	"dorkmail/helper"
	"dorkmail/lib"
)

func printEmails(w io.Writer, result *Result) {
	fmt.Fprintln(w, "========================================================================================>")
	for _, email := range result.Emails {
		helper.ResultFprintln(w, email.Email)
	}
	fmt.Fprintln(w, "<========================================================================================")
	helper.ResultFprintf(w, "[+] Found %d email(s)\n", len(result.Emails))

	if c := result.Change; c != nil && c.Previous {
		if c.Empty() {
			helper.InfoFprintln(w, "[+] No change since the previous run")
		}
		for _, addr := range c.Added {
			helper.ResultFprintln(w, "  +", addr)
		}
		for _, addr := range c.Removed {
			helper.ErrorFprintln(w, "  -", addr)
		}
	}
}

func printSummary(w io.Writer, cfg *lib.Configuration, engine common.SearchEngine, result *Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	fingerprint := result.Fingerprint
	if fingerprint == "" {
		fingerprint = "disabled"
	}

	stats := result.Report.Stats
	t.AppendHeader(table.Row{"Run", "Value"})
	t.AppendRows([]table.Row{
		{"Domain", cfg.Domain},
		{"Engine", engine.Name()},
		{"Pinned fingerprint", fingerprint},
		{"Search pages", stats.SearchPages},
		{"Requests", stats.Requests},
		{"Pages saved", stats.Saved},
		{"Failed fetches", stats.FetchErrors + stats.NonOK},
		{"Duplicates skipped", stats.Duplicates},
		{"Duration", stats.Duration.Round(time.Millisecond)},
	})
	t.AppendFooter(table.Row{"Emails", len(result.Emails)})
	t.Render()
}
