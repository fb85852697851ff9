package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
	"github.com/osr-alliance/backend-lead-tracker/internal/export"
	"github.com/osr-alliance/backend-lead-tracker/internal/filter"
	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

// leadRequest is the body of a create or full update. Dates are plain strings in any layout leads.ParseDate takes.
type leadRequest struct {
	Name            string        `json:"name"`
	ContactNumber   string        `json:"contact_number"`
	Address         *string       `json:"address"`
	Source          leads.Source  `json:"source"`
	Status          leads.Status  `json:"status"`
	FirstContacted  string        `json:"first_contacted"`
	ScheduledWalkIn string        `json:"scheduled_walk_in"`
	Licence         leads.Licence `json:"licence"`
	Notes           *string       `json:"notes"`
}

func (req *leadRequest) fields() (leads.Fields, error) {
	fc, err := optionalDate("first_contacted", req.FirstContacted)
	if err != nil {
		return leads.Fields{}, err
	}
	walkIn, err := optionalDate("scheduled_walk_in", req.ScheduledWalkIn)
	if err != nil {
		return leads.Fields{}, err
	}

	return leads.Fields{
		Name:            req.Name,
		ContactNumber:   req.ContactNumber,
		Address:         req.Address,
		Source:          req.Source,
		Status:          req.Status,
		FirstContacted:  fc,
		ScheduledWalkIn: walkIn,
		Licence:         req.Licence,
		Notes:           req.Notes,
	}, nil
}

func optionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := leads.ParseDate(s)
	if err != nil {
		return nil, apperrors.Validation(field, fmt.Sprintf("invalid date %q", s))
	}
	return &t, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("body", "invalid json: "+err.Error())
	}
	return nil
}

type listResponse struct {
	Leads    []leads.Lead `json:"leads"`
	Filtered bool         `json:"filtered"` // any filter active; an empty list then means nothing matched
	Total    int          `json:"total"`
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		writeError(w, log, err)
		return
	}

	all, err := s.store.FetchAll(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Leads:    filter.Apply(all, f),
		Filtered: f.Active(),
		Total:    len(all),
	})
}

func (s *Server) leadOptions(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.FetchAll(r.Context())
	if err != nil {
		writeError(w, logFrom(r.Context(), s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, filter.OptionsOf(all))
}

func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		writeError(w, log, err)
		return
	}

	all, err := s.store.FetchAll(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}

	// build the whole workbook first so a failure can still be reported as an error response
	buf := &bytes.Buffer{}
	if err := export.Leads(buf, filter.Apply(all, f)); err != nil {
		writeError(w, log, err)
		return
	}
	writeFile(w, "leads.xlsx", buf)
}

func writeFile(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	id, err := idFrom(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	l, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	req := &leadRequest{}
	if err := decode(r, req); err != nil {
		writeError(w, log, err)
		return
	}
	f, err := req.fields()
	if err != nil {
		writeError(w, log, err)
		return
	}

	l, err := s.store.Insert(r.Context(), f)
	if err != nil {
		writeError(w, log, err)
		return
	}

	s.mutation("insert")
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) updateLead(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	id, err := idFrom(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	req := &leadRequest{}
	if err := decode(r, req); err != nil {
		writeError(w, log, err)
		return
	}
	f, err := req.fields()
	if err != nil {
		writeError(w, log, err)
		return
	}

	l, err := s.store.Update(r.Context(), id, f)
	if err != nil {
		writeError(w, log, err)
		return
	}

	s.mutation("update")
	writeJSON(w, http.StatusOK, l)
}

type statusRequest struct {
	Status leads.Status `json:"status"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	id, err := idFrom(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	req := &statusRequest{}
	if err := decode(r, req); err != nil {
		writeError(w, log, err)
		return
	}

	l, err := s.store.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, log, err)
		return
	}

	s.mutation("update_status")
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	id, err := idFrom(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}

	s.mutation("delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) leadHistory(w http.ResponseWriter, r *http.Request) {
	log := logFrom(r.Context(), s.log)

	id, err := idFrom(r)
	if err != nil {
		writeError(w, log, err)
		return
	}

	h, err := s.store.History(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) mutation(op string) {
	if s.metrics != nil {
		s.metrics.Mutation(op)
	}
}
