package importer

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

const (
	ReasonMissing         = "Missing name/contact"
	ReasonStatus          = "Invalid status"
	ReasonSource          = "Invalid source"
	ReasonLicence         = "Invalid licence"
	ReasonFirstContacted  = "Invalid first_contacted"
	ReasonScheduledWalkIn = "Invalid scheduled_walk_in"
)

// reasons is the order reasons are reported in
var reasons = []string{ReasonMissing, ReasonStatus, ReasonSource, ReasonLicence, ReasonFirstContacted, ReasonScheduledWalkIn}

// Row is a record annotated for the preview
type Row struct {
	Line   int          `json:"line"`
	Record Record       `json:"record"`
	Fields leads.Fields `json:"fields"`
	Valid  bool         `json:"is_valid"`
	Reason string       `json:"errors"`
}

// candidate is what gets checked; every failing field maps to one reason
type candidate struct {
	Name            string `validate:"required"`
	ContactNumber   string `validate:"required"`
	Status          string `validate:"lead_status"`
	Source          string `validate:"lead_source"`
	Licence         string `validate:"lead_licence"`
	FirstContacted  string `validate:"omitempty,lead_date"`
	ScheduledWalkIn string `validate:"omitempty,lead_date"`
}

var fieldReasons = map[string]string{
	"Name":            ReasonMissing,
	"ContactNumber":   ReasonMissing,
	"Status":          ReasonStatus,
	"Source":          ReasonSource,
	"Licence":         ReasonLicence,
	"FirstContacted":  ReasonFirstContacted,
	"ScheduledWalkIn": ReasonScheduledWalkIn,
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	// registration only fails for an empty tag or a nil func
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return leads.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		return leads.Source(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_licence", func(fl validator.FieldLevel) bool {
		return leads.Licence(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_date", func(fl validator.FieldLevel) bool {
		_, err := leads.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

/*
	Validate checks every record on its own and reports every failing check, not just the first.
	A file without a status column gets the default status; a file without a licence column
	gets the default licence and no licence check. Source is always checked.
*/
func Validate(s *Sheet) []Row {
	hasStatus := s.Has("status")
	hasLicence := s.Has("licence")

	rows := make([]Row, 0, len(s.Records))
	for i, rec := range s.Records {
		c := candidate{
			Name:            rec["name"],
			ContactNumber:   rec["contact_number"],
			Status:          rec["status"],
			Source:          rec["source"],
			Licence:         rec["licence"],
			FirstContacted:  rec["first_contacted"],
			ScheduledWalkIn: rec["scheduled_walk_in"],
		}
		if !hasStatus {
			c.Status = string(leads.StatusPending)
		}
		if !hasLicence {
			c.Licence = string(leads.LicenceNo)
		}

		row := Row{Line: s.Lines[i], Record: rec}

		failed := map[string]bool{}
		if err := validate.Struct(c); err != nil {
			if errs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range errs {
					failed[fieldReasons[fe.StructField()]] = true
				}
			}
		}

		found := []string{}
		for _, r := range reasons {
			if failed[r] {
				found = append(found, r)
			}
		}

		row.Valid = len(found) == 0
		row.Reason = strings.Join(found, ", ")
		if row.Valid {
			row.Fields = toFields(c, rec)
		}
		rows = append(rows, row)
	}
	return rows
}

func toFields(c candidate, rec Record) leads.Fields {
	return leads.Fields{
		Name:            c.Name,
		ContactNumber:   c.ContactNumber,
		Address:         optional(rec["address"]),
		Source:          leads.Source(c.Source),
		Status:          leads.Status(c.Status),
		FirstContacted:  optionalDate(c.FirstContacted),
		ScheduledWalkIn: optionalDate(c.ScheduledWalkIn),
		Licence:         leads.Licence(c.Licence),
		Notes:           optional(rec["notes"]),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalDate is only called on values that already passed lead_date
func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := leads.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}
