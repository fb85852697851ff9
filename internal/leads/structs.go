package leads

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

var errRequired = errors.New("null value in required column")

// Lead is one row of the leads table. json tags are the column names.
type Lead struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	ContactNumber   string     `json:"contact_number"`
	Address         *string    `json:"address"`
	Source          Source     `json:"source"`
	Status          Status     `json:"status"`
	FirstContacted  *time.Time `json:"first_contacted"`
	ScheduledWalkIn *time.Time `json:"scheduled_walk_in"`
	Licence         Licence    `json:"licence"`
	Notes           *string    `json:"notes"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LeadHistory is one row of the lead_history table. Rows outlive their lead.
type LeadHistory struct {
	ID        int64     `json:"id"`
	LeadID    int64     `json:"lead_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     *string   `json:"notes"`
}

// Fields are the editable fields of a lead, used for both insert and full update.
type Fields struct {
	Name            string     `json:"name"`
	ContactNumber   string     `json:"contact_number"`
	Address         *string    `json:"address"`
	Source          Source     `json:"source"`
	Status          Status     `json:"status"`
	FirstContacted  *time.Time `json:"first_contacted"`
	ScheduledWalkIn *time.Time `json:"scheduled_walk_in"`
	Licence         Licence    `json:"licence"`
	Notes           *string    `json:"notes"`
}

func (l *Lead) Fields() Fields {
	return Fields{
		Name:            l.Name,
		ContactNumber:   l.ContactNumber,
		Address:         l.Address,
		Source:          l.Source,
		Status:          l.Status,
		FirstContacted:  l.FirstContacted,
		ScheduledWalkIn: l.ScheduledWalkIn,
		Licence:         l.Licence,
		Notes:           l.Notes,
	}
}

func (l *Lead) apply(f Fields) {
	l.Name = f.Name
	l.ContactNumber = f.ContactNumber
	l.Address = f.Address
	l.Source = f.Source
	l.Status = f.Status
	l.FirstContacted = f.FirstContacted
	l.ScheduledWalkIn = f.ScheduledWalkIn
	l.Licence = f.Licence
	l.Notes = f.Notes
}

// WithDefaults fills in the status and licence a new lead gets when they're left out
func (f Fields) WithDefaults() Fields {
	f.Name = strings.TrimSpace(f.Name)
	f.ContactNumber = strings.TrimSpace(f.ContactNumber)
	if f.Status == "" {
		f.Status = StatusPending
	}
	if f.Licence == "" {
		f.Licence = LicenceNo
	}
	return f
}

// check returns a persistence error for a missing required column and a validation error for a bad enum
func (f Fields) check() error {
	if f.Name == "" {
		return apperrors.Persistence("check lead", fmt.Errorf("name: %w", errRequired))
	}
	if f.ContactNumber == "" {
		return apperrors.Persistence("check lead", fmt.Errorf("contact_number: %w", errRequired))
	}
	if f.Source != "" && !f.Source.Valid() {
		return apperrors.Validation("source", "invalid source "+string(f.Source))
	}
	if !f.Status.Valid() {
		return apperrors.Validation("status", "invalid status "+string(f.Status))
	}
	if !f.Licence.Valid() {
		return apperrors.Validation("licence", "invalid licence "+string(f.Licence))
	}
	return nil
}
