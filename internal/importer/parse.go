package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

// Columns is the upload template header, in template order
var Columns = []string{"name", "contact_number", "address", "source", "status", "first_contacted", "notes", "licence", "scheduled_walk_in"}

// Record is one data row keyed by lower-cased header. Missing cells are "".
type Record map[string]string

// Sheet is an uploaded file: the columns it actually had and its data rows
type Sheet struct {
	Columns []string
	Records []Record
	Lines   []int // spreadsheet line of each record; the header is line 1
}

func (s *Sheet) Has(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Parse reads a .csv or .xlsx upload, picking the format from the file name
func Parse(filename string, r io.Reader) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, apperrors.Validation("file", "unsupported file type "+filepath.Ext(filename)+"; upload a .csv or .xlsx")
	}
}

func ParseCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	// csv drops blank lines, so the line of each row comes from the reader
	rows := [][]string{}
	lines := []int{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Validation("file", fmt.Sprintf("error reading file: %v", err))
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	return fromRows(rows, lines)
}

// ParseXLSX reads the first sheet of the workbook
func ParseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Validation("file", fmt.Sprintf("error reading file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.Validation("file", "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.Validation("file", fmt.Sprintf("error reading sheet %s: %v", sheets[0], err))
	}

	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return fromRows(rows, lines)
}

var errNoHeader = errors.New("file has no header row")

// fromRows builds a Sheet from raw rows; lines[i] is the spreadsheet line of rows[i]
func fromRows(rows [][]string, lines []int) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, apperrors.Validation("file", errNoHeader.Error())
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	s := &Sheet{Columns: header}
	for i, row := range rows[1:] {
		rec := Record{}
		empty := true
		for j, col := range header {
			if col == "" || j >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[j])
			if v != "" {
				empty = false
			}
			rec[col] = v
		}
		if empty {
			continue
		}

		s.Records = append(s.Records, rec)
		s.Lines = append(s.Lines, lines[i+1])
	}
	return s, nil
}
