package leads

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	storage "github.com/osr-alliance/backend-lead-tracker"
)

// Store is the persistence gateway for leads and their status history
type Store interface {
	// FetchAll returns every lead, newest id first
	FetchAll(ctx context.Context) ([]Lead, error)
	Get(ctx context.Context, id int64) (*Lead, error)
	Insert(ctx context.Context, f Fields) (*Lead, error)
	// Update overwrites every editable field and audits a status change in the same transaction
	Update(ctx context.Context, id int64, f Fields) (*Lead, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Lead, error)
	// Delete is a no-op for an id that doesn't exist. History rows are kept.
	Delete(ctx context.Context, id int64) error

	History(ctx context.Context, leadID int64) ([]LeadHistory, error)

	Ping(ctx context.Context) error
}

type store struct {
	store storage.Storage
	log   *logrus.Entry
}

type Config struct {
	ReadConn  *sqlx.DB
	WriteConn *sqlx.DB
	Redis     *redis.Client // nil disables the cache

	CacheTTL      int // seconds; 0 = DefaultTTL
	DoNotUseCache bool
	Debugger      bool

	Logger *logrus.Entry
}

func New(conf *Config) (Store, error) {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ttl := conf.CacheTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	// instantiate the storage
	s, err := storage.New(&storage.Config{
		ReadOnlyDbConn:  conf.ReadConn,
		WriteOnlyDbConn: conf.WriteConn,
		Redis:           conf.Redis,
		Tables:          tables(),
		ServiceName:     ServiceName,
		DefaultTTL:      ttl,
		DoNotUseCache:   conf.DoNotUseCache,
		Debugger:        conf.Debugger,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}

	return &store{
		store: s,
		log:   log.WithField("component", "leads"),
	}, nil
}

func (s *store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
