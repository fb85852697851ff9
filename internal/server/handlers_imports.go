package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
	"github.com/osr-alliance/backend-lead-tracker/internal/export"
	"github.com/osr-alliance/backend-lead-tracker/internal/importer"
)

type previewResponse struct {
	Rows    []importer.Row `json:"rows"`
	Valid   int            `json:"valid"`
	Invalid int            `json:"invalid"`
}

func (s *Server) importTemplate(w http.ResponseWriter, r *http.Request) {
	buf := &bytes.Buffer{}
	if err := export.Template(buf); err != nil {
		writeError(w, logFrom(r.Context(), s.log), err)
		return
	}
	writeFile(w, "leads_template.xlsx", buf)
}

// upload parses and validates the multipart "file" field
func (s *Server) upload(r *http.Request, log *logrus.Entry) ([]importer.Row, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, apperrors.Validation("file", fmt.Sprintf("invalid upload: %v", err))
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.Validation("file", "a file is required")
	}
	defer file.Close()

	sheet, err := importer.Parse(header.Filename, file)
	if err != nil {
		return nil, err
	}

	rows := importer.Validate(sheet)

	valid := 0
	for _, row := range rows {
		if row.Valid {
			valid++
		}
	}
	if s.metrics != nil {
		s.metrics.ImportRows("valid", valid)
		s.metrics.ImportRows("invalid", len(rows)-valid)
	}

	log.WithFields(logrus.Fields{
		"file":    header.Filename,
		"rows":    len(rows),
		"invalid": len(rows) - valid,
	}).Info("upload validated")
	return rows, nil
}

func (s *Server) previewImport(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	rows, err := s.upload(r, log)
	if err != nil {
		writeError(w, log, err)
		return
	}

	res := previewResponse{Rows: rows}
	for _, row := range rows {
		if row.Valid {
			res.Valid++
		} else {
			res.Invalid++
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	rows, err := s.upload(r, log)
	if err != nil {
		writeError(w, log, err)
		return
	}

	res := importer.InsertValid(r.Context(), s.store, rows, log)
	if s.metrics != nil {
		s.metrics.ImportRows("inserted", res.Inserted)
		s.metrics.ImportRows("failed", len(res.Failed))
	}
	writeJSON(w, http.StatusOK, res)
}
