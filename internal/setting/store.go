package setting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting/repo"
)

// Store is durable key/value storage for client preferences.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
}

// MemoryStore keeps settings for the life of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileStore keeps settings in a YAML document. The file is created on the
// first Put and rewritten atomically on every Put.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileDoc struct {
	Settings []entity.Setting `yaml:"settings"`
}

func (f *FileStore) load() (fileDoc, error) {
	var doc fileDoc
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse settings %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	for _, s := range doc.Settings {
		if s.Key == key {
			return s.Value, true, nil
		}
	}
	return "", false, nil
}

func (f *FileStore) Put(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	found := false
	for i := range doc.Settings {
		if doc.Settings[i].Key == key {
			doc.Settings[i].Value = value
			doc.Settings[i].UpdatedAt = now
			found = true
		}
	}
	if !found {
		doc.Settings = append(doc.Settings, entity.Setting{Key: key, Value: value, UpdatedAt: now})
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// PostgresStore adapts the sqlx repo to Store.
type PostgresStore struct {
	repo *repo.Repo
}

func NewPostgresStore(r *repo.Repo) *PostgresStore {
	return &PostgresStore{repo: r}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := p.repo.Get(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, key, value string) error {
	return p.repo.Upsert(ctx, &entity.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
}
