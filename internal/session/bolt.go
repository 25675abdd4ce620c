package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

var statesBucket = []byte("OAuthStates")

// BoltStore implements the Store interface using bbolt.
type BoltStore struct {
	db     *bbolt.DB
	logger *logrus.Logger
	now    func() time.Time
}

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string, logger *logrus.Logger) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	store := &BoltStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := store.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bolt database: %w", err)
	}
	return store, nil
}

// Initialize sets up the necessary buckets.
func (b *BoltStore) Initialize() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(statesBucket); err != nil {
			return fmt.Errorf("create %s bucket: %v", statesBucket, err)
		}
		return nil
	})
}

func (b *BoltStore) SaveState(ctx context.Context, sessionID, state string, expiresAt time.Time) error {
	encoded, err := json.Marshal(stateRecord{State: state, ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(statesBucket)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", statesBucket)
		}
		return bucket.Put(stateKey(sessionID), encoded)
	})
}

func (b *BoltStore) GetState(ctx context.Context, sessionID string) (string, error) {
	var record stateRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(statesBucket)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", statesBucket)
		}
		v := bucket.Get(stateKey(sessionID))
		if v == nil {
			return ErrStateNotFound
		}
		return json.Unmarshal(v, &record)
	})
	if err != nil {
		return "", err
	}

	if b.now().Unix() > record.ExpiresAt {
		if err := b.DeleteState(ctx, sessionID); err != nil {
			b.logger.WithError(err).Warn("Failed to delete expired state")
		}
		return "", ErrStateNotFound
	}
	return record.State, nil
}

// TakeState reads and deletes the state inside a single write transaction.
func (b *BoltStore) TakeState(ctx context.Context, sessionID string) (string, error) {
	var record stateRecord
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(statesBucket)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", statesBucket)
		}
		key := stateKey(sessionID)
		v := bucket.Get(key)
		if v == nil {
			return ErrStateNotFound
		}
		if err := json.Unmarshal(v, &record); err != nil {
			return err
		}
		return bucket.Delete(key)
	})
	if err != nil {
		return "", err
	}

	if b.now().Unix() > record.ExpiresAt {
		return "", ErrStateNotFound
	}
	return record.State, nil
}

func (b *BoltStore) DeleteState(ctx context.Context, sessionID string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(statesBucket)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", statesBucket)
		}
		return bucket.Delete(stateKey(sessionID))
	})
}

// PurgeExpired removes every expired state and returns how many were removed.
func (b *BoltStore) PurgeExpired(ctx context.Context) (int, error) {
	now := b.now().Unix()
	removed := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(statesBucket)
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", statesBucket)
		}
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var record stateRecord
			if err := json.Unmarshal(v, &record); err != nil || now > record.ExpiresAt {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

func (b *BoltStore) Close(ctx context.Context) error {
	return b.db.Close()
}
