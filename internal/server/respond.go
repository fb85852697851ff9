package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto its status and reports its text as is
func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Debug("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func idFrom(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperrors.Validation("id", "not a valid lead id")
	}
	return id, nil
}
