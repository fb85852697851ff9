package leads

import storage "github.com/osr-alliance/backend-lead-tracker"

func leadHistoryGetByLeadID() *storage.Query {
	return &storage.Query{
		Name:     LeadHistoryGetByLeadID,
		CacheKey: "lead_id=%v",

		Query: "SELECT * FROM lead_history WHERE lead_id=:lead_id ORDER BY changed_at DESC, id DESC",

		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheNoAction,
		DeleteAction: storage.CacheNoAction,
		SelectAction: storage.CacheSet,
	}
}

const leadHistoryInsert = `INSERT INTO lead_history (lead_id, old_status, new_status, changed_at, notes)
VALUES
(:lead_id, :old_status, :new_status, NOW(), :notes) RETURNING *`
