package services

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"h1b-scraper/models"
	"h1b-scraper/utils"
)

// InsightService summarises a cleaned dataset.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes per-record salary statistics over the normalised column.
func (s *InsightService) Generate(ds *models.Dataset, column string) *models.InsightReport {
	report := &models.InsightReport{Column: column}
	if ds == nil {
		return report
	}

	report.TotalRecords = len(ds.Records)
	for _, r := range ds.Records {
		stats := models.SalaryStats{Year: r.Year, JobTitle: r.JobTitle}
		if r.Absent() {
			stats.Absent = true
			report.AbsentRecords++
			report.PerRecord = append(report.PerRecord, stats)
			continue
		}

		report.TotalRows += r.Table.Len()
		idx := r.Table.ColumnIndex(column)
		var total int64
		for i := range r.Table.Rows {
			if idx < 0 {
				break
			}
			c := r.Table.Cell(i, idx)
			if !c.IsInt {
				continue
			}
			if stats.Count == 0 || c.Int < stats.Min {
				stats.Min = c.Int
			}
			if stats.Count == 0 || c.Int > stats.Max {
				stats.Max = c.Int
			}
			total += c.Int
			stats.Count++
		}
		if stats.Count > 0 {
			stats.Average = round2(float64(total) / float64(stats.Count))
		}
		report.PerRecord = append(report.PerRecord, stats)
	}

	for i := range report.PerRecord {
		st := &report.PerRecord[i]
		if st.Count == 0 {
			continue
		}
		if report.Highest == nil || st.Average > report.Highest.Average {
			report.Highest = st
		}
	}

	s.logger.Debug("[insights] %d records, %d rows, %d absent",
		report.TotalRecords, report.TotalRows, report.AbsentRecords)
	return report
}

// Print renders the report as a terminal table.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("H-1B SALARY INSIGHTS (%s)", r.Column)
	t.AppendHeader(table.Row{"Year", "Job Title", "Rows", "Min", "Average", "Max"})

	for _, st := range r.PerRecord {
		if st.Absent {
			t.AppendRow(table.Row{st.Year, st.JobTitle, "no data", "-", "-", "-"})
			continue
		}
		if st.Count == 0 {
			t.AppendRow(table.Row{st.Year, st.JobTitle, st.Count, "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{st.Year, st.JobTitle, st.Count, st.Min, fmt.Sprintf("%.2f", st.Average), st.Max})
	}

	t.AppendFooter(table.Row{"", "Total", r.TotalRows, "", "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if r.Highest != nil {
		fmt.Fprintf(w, "Highest average: %s (%d) at %.2f\n", r.Highest.JobTitle, r.Highest.Year, r.Highest.Average)
	}
	if r.AbsentRecords > 0 {
		fmt.Fprintf(w, "%d of %d queries returned no rows\n", r.AbsentRecords, r.TotalRecords)
	}
}

// PrintTable renders an arbitrary parsed table, used by the parse command.
func PrintTable(w io.Writer, tbl *models.Table) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("table id=%s", tbl.ID)

	header := table.Row{}
	for _, name := range tbl.ColumnNames() {
		header = append(header, name)
	}
	t.AppendHeader(header)

	width := tbl.Width()
	for i := range tbl.Rows {
		row := make(table.Row, width)
		for j := 0; j < width; j++ {
			row[j] = tbl.Cell(i, j).String()
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
