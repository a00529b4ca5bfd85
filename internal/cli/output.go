package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/JonMunkholm/rawready/internal/checks"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/report"
	"github.com/JonMunkholm/rawready/internal/rules"
)

var (
	passColor = color.New(color.FgGreen).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	failColor = color.New(color.FgRed, color.Bold).SprintFunc()
	dimColor  = color.New(color.Faint).SprintFunc()
)

// nullCell is how a missing value is shown in tables.
const nullCell = "null"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusText(s checks.Status) string {
	switch s {
	case checks.StatusPass:
		return passColor(string(s))
	case checks.StatusWarn:
		return warnColor(string(s))
	default:
		return failColor(string(s))
	}
}

func printFiles(w io.Writer, files []*core.FileProfile) error {
	table := tablewriter.NewWriter(w)
	table.Header("File", "Size", "Rows", "Columns", "Missing", "Dates", "Note")

	for _, f := range files {
		rows, cols, missing, dates := "-", "-", "-", ""
		if f.IsTabular {
			rows = humanize.Comma(int64(f.RowCount))
			cols = strconv.Itoa(f.ColumnCount)
			missing = fmt.Sprintf("%.1f%%", f.OverallMissingRatio*100)
		}
		if f.GlobalDateMin != "" {
			dates = f.GlobalDateMin + " .. " + f.GlobalDateMax
		}
		note := ""
		switch {
		case f.Error != "":
			note = failColor(f.Error)
		case !f.IsTabular:
			note = dimColor("opaque")
		}
		if err := table.Append([]string{
			f.FileName,
			humanize.Bytes(uint64(max(0, f.SizeBytes))),
			rows, cols, missing, dates, note,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printChecks(w io.Writer, results []checks.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, dimColor("no checks configured"))
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Status", "ID", "Type", "File", "Details")
	for _, r := range results {
		if err := table.Append([]string{
			statusText(r.Status), r.ID, r.Type, r.File, r.Details,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printSummary(w io.Writer, s report.Summary) {
	fmt.Fprintf(w, "%s files (%s tabular), %s rows, %s in %s\n",
		humanize.Comma(int64(s.TotalFiles)),
		humanize.Comma(int64(s.TabularFiles)),
		humanize.Comma(int64(s.TotalRows)),
		humanize.Bytes(uint64(max(0, s.TotalSizeBytes))),
		(time.Duration(s.DurationMS) * time.Millisecond).String(),
	)
	fmt.Fprintf(w, "checks: %s passed, %s warned, %s failed\n",
		passColor(strconv.Itoa(s.PassingChecks)),
		warnColor(strconv.Itoa(s.WarnChecks)),
		failColor(strconv.Itoa(s.FailingChecks)),
	)
}

func printPreview(w io.Writer, p *core.PreviewResponse) error {
	fmt.Fprintf(w, "%s: %s rows\n", p.FileName, humanize.Comma(int64(p.Rows)))

	table := tablewriter.NewWriter(w)
	header := make([]any, len(p.Columns))
	for i, c := range p.Columns {
		header[i] = c
	}
	table.Header(header...)

	for _, row := range p.PreviewRows {
		var cells []string
		switch v := row.(type) {
		case core.Record:
			cells = make([]string, len(p.Columns))
			for i, c := range p.Columns {
				cell, _ := v.Get(c)
				if cell == nil {
					cells[i] = dimColor(nullCell)
					continue
				}
				cells[i] = *cell
			}
		default:
			cells = []string{fmt.Sprint(v)}
		}
		if err := table.Append(cells); err != nil {
			return err
		}
	}
	return table.Render()
}

func printRules(w io.Writer, defs []rules.Definition) error {
	if len(defs) == 0 {
		_, err := fmt.Fprintln(w, dimColor("no rules defined"))
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Type", "Scope", "File", "Title")
	for _, d := range defs {
		typ := d.Type
		if !checks.Supported(d.Type) {
			typ = warnColor(d.Type + " (unsupported)")
		}
		if err := table.Append([]string{d.ID, typ, string(d.Scope), d.File, d.Title}); err != nil {
			return err
		}
	}
	return table.Render()
}
