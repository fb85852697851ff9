package leads

import storage "github.com/osr-alliance/backend-lead-tracker"

func leadsGetAll() *storage.Query {
	return &storage.Query{
		Name:     LeadsGetAll,
		CacheKey: "all",

		Query: "SELECT * FROM leads ORDER BY id DESC",

		// any write to leads changes the list
		InsertAction: storage.CacheDel,
		UpdateAction: storage.CacheDel,
		DeleteAction: storage.CacheDel,
		SelectAction: storage.CacheSet,
	}
}

func leadsGetByID() *storage.Query {
	return &storage.Query{
		Name:  LeadsGetByID,
		Query: "SELECT * FROM leads WHERE id=:id",

		InsertAction: storage.CacheNoAction,
		UpdateAction: storage.CacheNoAction,
		DeleteAction: storage.CacheNoAction,
		SelectAction: storage.CacheNoAction,
	}
}

// leadsGetByIDForUpdate locks the row so the status we audit against is the one we overwrite
func leadsGetByIDForUpdate() *storage.Query {
	return &storage.Query{
		Name:  LeadsGetByIDForUpdate,
		Query: "SELECT * FROM leads WHERE id=:id FOR UPDATE",

		InsertAction: storage.CacheNoAction,
		UpdateAction: storage.CacheNoAction,
		DeleteAction: storage.CacheNoAction,
		SelectAction: storage.CacheNoAction,
	}
}

const leadsInsert = `INSERT INTO leads (name, contact_number, address, source, status, first_contacted, scheduled_walk_in, licence, notes, updated_at)
VALUES
(:name, :contact_number, :address, :source, :status, :first_contacted, :scheduled_walk_in, :licence, :notes, NOW()) RETURNING *` // note: make sure it's RETURNING *

const leadsUpdate = `UPDATE leads SET name=:name, contact_number=:contact_number, address=:address, source=:source, status=:status,
first_contacted=:first_contacted, scheduled_walk_in=:scheduled_walk_in, licence=:licence, notes=:notes, updated_at=NOW()
WHERE id=:id RETURNING *` // note: make sure it's RETURNING *

const leadsDelete = `DELETE FROM leads WHERE id=:id`
