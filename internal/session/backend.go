package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/candidate-portal/internal/config"
	"go.etcd.io/bbolt"
)

// Backend persists the token of one scope.
type Backend interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// MemoryBackend keeps a token for the life of the process. It is the tab
// scope: gone as soon as the portal exits.
type MemoryBackend struct {
	mu    sync.Mutex
	token string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryBackend) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete() error {
	return m.Save("")
}

// BoltDB wraps the session database file. One file may back several scopes.
type BoltDB struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the session database and its bucket.
func OpenBolt(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(config.StoreKey.SessionBucket())
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

// Scope returns a Backend storing its token under the given scope key.
func (b *BoltDB) Scope(scope Scope) *BoltBackend {
	return &BoltBackend{db: b.db, key: config.StoreKey.TokenKey(string(scope))}
}

// BoltBackend is a durable scope: the token survives portal restarts.
type BoltBackend struct {
	db  *bbolt.DB
	key []byte
}

func (b *BoltBackend) Load() (string, error) {
	var token string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(config.StoreKey.SessionBucket())
		if bucket == nil {
			return nil
		}
		if v := bucket.Get(b.key); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (b *BoltBackend) Save(token string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(config.StoreKey.SessionBucket())
		if err != nil {
			return err
		}
		return bucket.Put(b.key, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (b *BoltBackend) Delete() error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(config.StoreKey.SessionBucket())
		if bucket == nil {
			return nil
		}
		return bucket.Delete(b.key)
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
