package setting

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/database"
)

// Service adds typed accessors on top of a Store.
type Service struct {
	store Store
}

// NewService constructs a Service; a nil store keeps settings in memory.
func NewService(s Store) *Service {
	if s == nil {
		s = NewMemoryStore()
	}
	return &Service{store: s}
}

// Open picks the postgres store when dbCfg has a DSN and the YAML file
// store otherwise. The returned close func releases the database handle.
func Open(ctx context.Context, dbCfg database.Config, file string) (*Service, func() error, error) {
	if !dbCfg.Enabled() {
		return NewService(NewFileStore(file)), func() error { return nil }, nil
	}
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	r := repo.NewRepo(db)
	if err := r.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure settings table: %w", err)
	}
	return NewService(NewPostgresStore(r)), db.Close, nil
}

// Bool returns the boolean stored under key, or def when unset or unparsable.
func (s *Service) Bool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		return def, nil
	}
	return b, nil
}

func (s *Service) SetBool(ctx context.Context, key string, v bool) error {
	return s.store.Put(ctx, key, strconv.FormatBool(v))
}

func (s *Service) String(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, key)
}

func (s *Service) SetString(ctx context.Context, key, v string) error {
	return s.store.Put(ctx, key, v)
}
