package importer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/osr-alliance/backend-lead-tracker/internal/leads"
)

// Inserter is the part of leads.Store an import needs
type Inserter interface {
	Insert(ctx context.Context, f leads.Fields) (*leads.Lead, error)
}

type Failure struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type Result struct {
	Inserted int       `json:"inserted"`
	Skipped  int       `json:"skipped"` // invalid rows, never sent to the store
	Failed   []Failure `json:"failed"`
	IDs      []int64   `json:"ids"`
}

/*
	InsertValid inserts the valid rows one at a time. There is no transaction: a row that fails
	is recorded and the rest carry on, and rows already inserted stay inserted.
*/
func InsertValid(ctx context.Context, ins Inserter, rows []Row, log *logrus.Entry) Result {
	res := Result{Failed: []Failure{}, IDs: []int64{}}

	for _, row := range rows {
		if !row.Valid {
			res.Skipped++
			continue
		}

		l, err := ins.Insert(ctx, row.Fields)
		if err != nil {
			log.WithError(err).WithField("line", row.Line).Warn("import row failed")
			res.Failed = append(res.Failed, Failure{Line: row.Line, Error: err.Error()})
			continue
		}

		res.Inserted++
		res.IDs = append(res.IDs, l.ID)
	}

	log.WithFields(logrus.Fields{
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
		"failed":   len(res.Failed),
	}).Info("import finished")
	return res
}
