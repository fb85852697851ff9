package leads

import storage "github.com/osr-alliance/backend-lead-tracker"

// define all the query names we will use
const (
	/*
		It's standard to have the query used to fetch by
		the primary key be called {tableName}GetByID
	*/
	LeadsGetByID          = "LeadsGetByID"
	LeadsGetByIDForUpdate = "LeadsGetByIDForUpdate"
	LeadsGetAll           = "LeadsGetAll"

	LeadHistoryGetByLeadID = "LeadHistoryGetByLeadID"
)

const (
	ServiceName = "leadtracker"

	// DefaultTTL is how long the lead list may be served from redis; writes invalidate it immediately anyway
	DefaultTTL = 60
)

func tables() []*storage.Table {
	return []*storage.Table{
		{
			Struct:          Lead{},
			PrimaryKeyField: "id",
			InsertQuery:     leadsInsert,
			UpdateQuery:     leadsUpdate,
			DeleteQuery:     leadsDelete,
			Queries: []*storage.Query{
				leadsGetAll(),
				leadsGetByID(),
				leadsGetByIDForUpdate(),
			},
		},
		{
			Struct:          LeadHistory{},
			PrimaryKeyField: "id",
			InsertQuery:     leadHistoryInsert, // append only: no update or delete
			Queries: []*storage.Query{
				leadHistoryGetByLeadID(),
			},
		},
	}
}
