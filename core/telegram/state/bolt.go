package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/m3rciful/fishbot/core/logger"

	bolt "go.etcd.io/bbolt"
)

var (
	sessionsBucket = []byte("sessions")
	errStopEach    = errors.New("state: stop iteration")
)

// BoltStore persists sessions in a single bbolt file.
type BoltStore[T any] struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt[T any](path string) (*BoltStore[T], error) {
	if path == "" {
		return nil, fmt.Errorf("state: bolt path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("state: create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("state: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: init bolt bucket: %w", err)
	}
	return &BoltStore[T]{db: db}, nil
}

func boltKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func (s *BoltStore[T]) Load(_ context.Context, userID int64) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get(boltKey(userID))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("state: load session %d: %w", userID, err)
	}
	return out, found, nil
}

func (s *BoltStore[T]) Save(_ context.Context, userID int64, v T) error {
	enc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode session %d: %w", userID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put(boltKey(userID), enc)
	})
}

func (s *BoltStore[T]) Delete(_ context.Context, userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete(boltKey(userID))
	})
}

func (s *BoltStore[T]) Each(ctx context.Context, fn func(userID int64, v T) bool) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, raw []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err != nil {
				return nil
			}
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				// Skip malformed entries instead of failing the whole scan.
				logger.Warn(ctx, "sessions", "decode.skip",
					slog.Int64("user_id", id),
					slog.String("backend", BackendBolt),
					slog.String("err", err.Error()),
				)
				return nil
			}
			if !fn(id, v) {
				return errStopEach
			}
			return nil
		})
	})
	if errors.Is(err, errStopEach) {
		return nil
	}
	return err
}

func (s *BoltStore[T]) Close() error {
	return s.db.Close()
}
