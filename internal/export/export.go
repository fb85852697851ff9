// Package export writes leads to xlsx.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/osr-alliance/backend-lead-tracker/internal/importer"
	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

const (
	LeadsSheet    = "Leads"
	TemplateSheet = "Leads_Template"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Columns of an export: every column of the leads table
var Columns = []string{"id", "name", "contact_number", "address", "source", "status", "first_contacted", "scheduled_walk_in", "licence", "notes", "updated_at"}

// Leads writes one sheet holding ls, in order
func Leads(w io.Writer, ls []leads.Lead) error {
	rows := make([][]interface{}, 0, len(ls))
	for _, l := range ls {
		rows = append(rows, []interface{}{
			l.ID,
			l.Name,
			l.ContactNumber,
			deref(l.Address),
			string(l.Source),
			string(l.Status),
			leads.FormatDate(l.FirstContacted),
			leads.FormatDate(l.ScheduledWalkIn),
			string(l.Licence),
			deref(l.Notes),
			l.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return write(w, LeadsSheet, Columns, rows)
}

// Template writes the empty upload template
func Template(w io.Writer) error {
	return write(w, TemplateSheet, importer.Columns, nil)
}

func write(w io.Writer, sheet string, header []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	// a new file comes with Sheet1
	err := f.SetSheetName(f.GetSheetName(0), sheet)
	if err != nil {
		return err
	}

	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}

	all := append([][]interface{}{hdr}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	return f.Write(w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
