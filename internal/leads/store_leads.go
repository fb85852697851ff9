package leads

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	storage "github.com/osr-alliance/backend-lead-tracker"
	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

func (s *store) FetchAll(ctx context.Context) ([]Lead, error) {
	leads := []Lead{}
	err := s.store.SelectAll(ctx, nil, &leads, LeadsGetAll)
	if err != nil {
		return nil, apperrors.Persistence("fetch leads", err)
	}
	return leads, nil
}

func (s *store) Get(ctx context.Context, id int64) (*Lead, error) {
	l := &Lead{ID: id}
	err := s.store.Select(ctx, l, LeadsGetByID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NotFound("lead", id)
	}
	if err != nil {
		return nil, apperrors.Persistence("get lead", err)
	}
	return l, nil
}

func (s *store) Insert(ctx context.Context, f Fields) (*Lead, error) {
	f = f.WithDefaults()
	err := f.check()
	if err != nil {
		return nil, err
	}

	l := &Lead{}
	l.apply(f)

	err = s.store.Insert(ctx, l)
	if err != nil {
		return nil, apperrors.Persistence("insert lead", err)
	}

	s.log.WithField("lead_id", l.ID).Info("lead inserted")
	return l, nil
}

func (s *store) Update(ctx context.Context, id int64, f Fields) (*Lead, error) {
	f = f.WithDefaults()
	err := f.check()
	if err != nil {
		return nil, err
	}

	return s.update(ctx, id, func(l *Lead) {
		l.apply(f)
	})
}

func (s *store) UpdateStatus(ctx context.Context, id int64, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status", "invalid status "+string(status))
	}

	return s.update(ctx, id, func(l *Lead) {
		l.Status = status
	})
}

/*
	update locks the lead, lets mutate change it, writes it back and, when the status moved from a
	non-null value to a different one, appends a history row. All of it is one transaction; the cache
	is only touched once it has committed.
*/
func (s *store) update(ctx context.Context, id int64, mutate func(l *Lead)) (*Lead, error) {
	tx, err := s.store.TXBegin(ctx)
	if err != nil {
		return nil, apperrors.Persistence("begin update", err)
	}

	l := &Lead{ID: id}
	err = tx.TxSelect(ctx, l, LeadsGetByIDForUpdate)
	if err != nil {
		s.rollback(ctx, tx)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("lead", id)
		}
		return nil, apperrors.Persistence("read lead", err)
	}

	oldStatus := l.Status
	mutate(l)
	l.ID = id

	err = tx.TXUpdate(ctx, l)
	if err != nil {
		s.rollback(ctx, tx)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("lead", id)
		}
		return nil, apperrors.Persistence("update lead", err)
	}

	log := s.log.WithField("lead_id", id)

	if oldStatus != "" && oldStatus != l.Status {
		h := &LeadHistory{
			LeadID:    id,
			OldStatus: oldStatus,
			NewStatus: l.Status,
			Notes:     l.Notes,
		}
		err = tx.TXInsert(ctx, h)
		if err != nil {
			s.rollback(ctx, tx)
			return nil, apperrors.Persistence("insert lead history", err)
		}

		log = log.WithFields(logrus.Fields{"old_status": oldStatus, "new_status": l.Status})
	}

	err = tx.TXEnd(ctx)
	if err != nil {
		return nil, apperrors.Persistence("commit update", err)
	}

	log.Info("lead updated")
	return l, nil
}

func (s *store) rollback(ctx context.Context, tx storage.TxInterface) {
	err := tx.TXRollback(ctx)
	if err != nil {
		s.log.WithError(err).Warn("rollback failed")
	}
}

func (s *store) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, &Lead{ID: id})
	if err != nil {
		return apperrors.Persistence("delete lead", err)
	}

	s.log.WithField("lead_id", id).Info("lead deleted")
	return nil
}
