package leads

import (
	"context"

	"github.com/osr-alliance/backend-lead-tracker/internal/apperrors"
)

// History returns the status changes of a lead, newest first. It works for deleted leads too.
func (s *store) History(ctx context.Context, leadID int64) ([]LeadHistory, error) {
	entries := []LeadHistory{}
	err := s.store.SelectAll(ctx, map[string]interface{}{"lead_id": leadID}, &entries, LeadHistoryGetByLeadID)
	if err != nil {
		return nil, apperrors.Persistence("fetch lead history", err)
	}
	return entries, nil
}
