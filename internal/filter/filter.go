// Package filter narrows an in-memory list of leads. Every predicate is optional and they all AND together.
package filter

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

// All is what the drop-downs send for "no constraint"
const All = "All"

type Filter struct {
	Status  leads.Status
	Source  leads.Source
	Licence leads.Licence

	FirstContacted  *time.Time
	ScheduledWalkIn *time.Time

	// Search matches name or contact number, case-insensitive
	Search string

	// FirstContactedFrom and FirstContactedTo are inclusive; either may be left open
	FirstContactedFrom *time.Time
	FirstContactedTo   *time.Time
}

func active(s string) bool {
	return s != "" && s != All
}

// Active reports whether any predicate constrains the result
func (f Filter) Active() bool {
	return active(string(f.Status)) ||
		active(string(f.Source)) ||
		active(string(f.Licence)) ||
		f.FirstContacted != nil ||
		f.ScheduledWalkIn != nil ||
		strings.TrimSpace(f.Search) != "" ||
		f.FirstContactedFrom != nil ||
		f.FirstContactedTo != nil
}

// Match reports whether l satisfies every active predicate
func (f Filter) Match(l *leads.Lead) bool {
	if active(string(f.Status)) && l.Status != f.Status {
		return false
	}
	if active(string(f.Source)) && l.Source != f.Source {
		return false
	}
	if active(string(f.Licence)) && l.Licence != f.Licence {
		return false
	}
	if f.FirstContacted != nil && !onDay(l.FirstContacted, *f.FirstContacted) {
		return false
	}
	if f.ScheduledWalkIn != nil && !onDay(l.ScheduledWalkIn, *f.ScheduledWalkIn) {
		return false
	}
	if !f.inRange(l.FirstContacted) {
		return false
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search != "" &&
		!strings.Contains(strings.ToLower(l.Name), search) &&
		!strings.Contains(strings.ToLower(l.ContactNumber), search) {
		return false
	}
	return true
}

func onDay(t *time.Time, day time.Time) bool {
	return t != nil && leads.SameDay(*t, day)
}

func (f Filter) inRange(t *time.Time) bool {
	if f.FirstContactedFrom == nil && f.FirstContactedTo == nil {
		return true
	}
	if t == nil {
		return false
	}

	d := dayOf(*t)
	if f.FirstContactedFrom != nil && d.Before(dayOf(*f.FirstContactedFrom)) {
		return false
	}
	if f.FirstContactedTo != nil && d.After(dayOf(*f.FirstContactedTo)) {
		return false
	}
	return true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Apply returns the leads matching f in their original order. The result is never nil and all is never modified.
func Apply(all []leads.Lead, f Filter) []leads.Lead {
	out := make([]leads.Lead, 0, len(all))
	for i := range all {
		if f.Match(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// Parse builds a Filter from query parameters:
// status, source, licence, first_contacted, scheduled_walk_in, search, first_contacted_from, first_contacted_to
func Parse(v url.Values) (Filter, error) {
	f := Filter{
		Status:  leads.Status(strings.TrimSpace(v.Get("status"))),
		Source:  leads.Source(strings.TrimSpace(v.Get("source"))),
		Licence: leads.Licence(strings.TrimSpace(v.Get("licence"))),
		Search:  v.Get("search"),
	}

	dates := []struct {
		param string
		dest  **time.Time
	}{
		{"first_contacted", &f.FirstContacted},
		{"scheduled_walk_in", &f.ScheduledWalkIn},
		{"first_contacted_from", &f.FirstContactedFrom},
		{"first_contacted_to", &f.FirstContactedTo},
	}

	for _, d := range dates {
		raw := strings.TrimSpace(v.Get(d.param))
		if raw == "" {
			continue
		}
		t, err := leads.ParseDate(raw)
		if err != nil {
			return Filter{}, apperrors.Validation(d.param, err.Error())
		}
		*d.dest = &t
	}

	return f, nil
}

// Options are the distinct non-null values present, for building drop-downs
type Options struct {
	Statuses []leads.Status  `json:"statuses"`
	Sources  []leads.Source  `json:"sources"`
	Licences []leads.Licence `json:"licences"`
}

func OptionsOf(all []leads.Lead) Options {
	statuses := map[leads.Status]struct{}{}
	sources := map[leads.Source]struct{}{}
	licences := map[leads.Licence]struct{}{}

	for _, l := range all {
		if l.Status != "" {
			statuses[l.Status] = struct{}{}
		}
		if l.Source != "" {
			sources[l.Source] = struct{}{}
		}
		if l.Licence != "" {
			licences[l.Licence] = struct{}{}
		}
	}

	o := Options{
		Statuses: make([]leads.Status, 0, len(statuses)),
		Sources:  make([]leads.Source, 0, len(sources)),
		Licences: make([]leads.Licence, 0, len(licences)),
	}
	for s := range statuses {
		o.Statuses = append(o.Statuses, s)
	}
	for s := range sources {
		o.Sources = append(o.Sources, s)
	}
	for l := range licences {
		o.Licences = append(o.Licences, l)
	}

	sort.Slice(o.Statuses, func(i, j int) bool { return o.Statuses[i] < o.Statuses[j] })
	sort.Slice(o.Sources, func(i, j int) bool { return o.Sources[i] < o.Sources[j] })
	sort.Slice(o.Licences, func(i, j int) bool { return o.Licences[i] < o.Licences[j] })
	return o
}
