package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mesh-intelligence/docket/pkg/dedup"
	"github.com/mesh-intelligence/docket/pkg/sequence"
	"github.com/mesh-intelligence/docket/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seqString(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func dateString(d *types.ResolvedDate) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func renderRecords(w io.Writer, recs []*types.EvidenceRecord) {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		status := r.Status
		if r.Removed {
			status = "removed"
		}
		rows = append(rows, []string{
			r.ID(),
			string(r.Namespace),
			status,
			seqString(r.SequenceNumber),
			dateString(r.ResolvedDate),
			r.DisplayNumber,
			r.Artifact.Name,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Namespace", "Status", "Seq", "Date", "Display", "Artifact"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func renderReport(w io.Writer, report *sequence.CascadeReport) {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		name := o.OldName
		if o.NewName != "" && o.NewName != o.OldName {
			name = o.OldName + " -> " + o.NewName
		}
		id := o.OldID
		if o.NewID != "" && o.NewID != o.OldID {
			id = o.OldID + " -> " + o.NewID
		}
		rows = append(rows, []string{
			id,
			seqString(o.OldSequence),
			seqString(o.NewSequence),
			string(o.State),
			name,
			o.Error,
		})
	}
	fmt.Fprintf(w, "%s %s", report.Operation, report.Namespace)
	if report.Position > 0 {
		fmt.Fprintf(w, " at %d", report.Position)
	}
	if report.Completed {
		fmt.Fprintln(w, ": completed")
	} else {
		fmt.Fprintln(w, ": aborted")
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "nothing to do")
		return
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Old", "New", "State", "Artifact", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
}

func renderMerge(w io.Writer, report dedup.MergeReport) {
	if len(report.Groups) == 0 {
		fmt.Fprintln(w, "no duplicates found")
		return
	}
	rows := make([][]string, 0, len(report.Groups))
	for _, g := range report.Groups {
		removed := strconv.Itoa(len(g.Removed))
		if g.Ambiguous {
			removed += " (ambiguous)"
		}
		rows = append(rows, []string{
			string(g.Namespace),
			g.CanonicalID,
			removed,
			fmt.Sprint(g.Keys),
			fmt.Sprint(g.Filled),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Namespace", "Kept", "Removed", "Shared ids", "Filled"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
}
