package leads

import (
	"database/sql/driver"
	"fmt"
)

// Status is where a lead is in the pipeline. The empty value is stored as NULL.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnboarded  Status = "onboarded"
	StatusRejected   Status = "rejected"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusOnboarded, StatusRejected}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Status) Scan(src interface{}) error {
	v, err := scanString(src)
	*s = Status(v)
	return err
}

func (s Status) Value() (driver.Value, error) {
	return nullable(string(s)), nil
}

// Source is how a lead found us. The empty value is stored as NULL.
type Source string

const (
	SourceInstagram Source = "Instagram"
	SourceReferral  Source = "Referral"
	SourceWalkIn    Source = "Walk-in"
	SourceOther     Source = "Other"
)

var Sources = []Source{SourceInstagram, SourceReferral, SourceWalkIn, SourceOther}

func (s Source) Valid() bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Source) Scan(src interface{}) error {
	v, err := scanString(src)
	*s = Source(v)
	return err
}

func (s Source) Value() (driver.Value, error) {
	return nullable(string(s)), nil
}

// Licence is whether the lead holds a licence. The empty value is stored as NULL.
type Licence string

const (
	LicenceYes Licence = "yes"
	LicenceNo  Licence = "no"
)

var Licences = []Licence{LicenceYes, LicenceNo}

func (l Licence) Valid() bool {
	return l == LicenceYes || l == LicenceNo
}

func (l *Licence) Scan(src interface{}) error {
	v, err := scanString(src)
	*l = Licence(v)
	return err
}

func (l Licence) Value() (driver.Value, error) {
	return nullable(string(l)), nil
}

func scanString(src interface{}) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into an enum", src)
	}
}

func nullable(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}
