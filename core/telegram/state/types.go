package state

import (
	"context"
	"errors"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("state: store closed")

// Store persists one session value per user.
type Store[T any] interface {
	// Load returns the stored session and true, or the zero value and false when absent.
	Load(ctx context.Context, userID int64) (T, bool, error)
	Save(ctx context.Context, userID int64, v T) error
	Delete(ctx context.Context, userID int64) error
	// Each visits every stored session until fn returns false.
	Each(ctx context.Context, fn func(userID int64, v T) bool) error
	Close() error
}
