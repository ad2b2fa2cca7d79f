package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/OpenDive/suibotics-core-sub002/control/event"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
)

const sessionBucket = "sessions"

// Bolt is a bbolt-backed SessionStore. bbolt admits a single write
// transaction at a time, so Apply's read-modify-write inside db.Update gives
// every mutating call the required exclusivity; events publish inside the
// same transaction scope, before any later call can run.
type Bolt struct {
	db        *bbolt.DB
	publisher event.Publisher
}

// OpenBolt opens (creating if needed) a bbolt-backed store at path.
func OpenBolt(path string, publisher event.Publisher) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if publisher == nil {
		publisher = event.Discard
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		if err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Bolt{db: db, publisher: publisher}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Create inserts a new session record.
func (b *Bolt) Create(ctx context.Context, s session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		if bucket.Get([]byte(s.ID)) != nil {
			return ErrAlreadyExists
		}
		return bucket.Put([]byte(s.ID), payload)
	})
}

// Get fetches a session record by ID.
func (b *Bolt) Get(ctx context.Context, id string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}

	var out session.Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}
		return nil
	})
	if err != nil {
		return session.Session{}, err
	}
	return out, nil
}

// List returns all session records in key order.
func (b *Bolt) List(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []session.Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var s session.Session
			if err := json.Unmarshal(payload, &s); err != nil {
				return fmt.Errorf("unmarshal session: %w", err)
			}
			out = append(out, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Apply runs fn against the named session inside a write transaction and
// persists the mutated record when fn succeeds.
func (b *Bolt) Apply(ctx context.Context, id string, fn ApplyFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}

		payload := bucket.Get([]byte(id))
		if payload == nil {
			return ErrNotFound
		}

		var s session.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		events, err := fn(&s)
		if err != nil {
			return err
		}

		updated, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		if err := bucket.Put([]byte(id), updated); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}

		for _, evt := range events {
			b.publisher.Publish(evt)
		}
		return nil
	})
}
