package state

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Options selects and configures a session backend.
type Options struct {
	Backend  string
	BoltPath string
	DB       *sqlx.DB
}

// Open returns the store named by opts.Backend. An empty backend means memory.
func Open[T any](opts Options) (Store[T], error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore[T](), nil
	case BackendBolt:
		return OpenBolt[T](opts.BoltPath)
	case BackendPostgres:
		if opts.DB == nil {
			return nil, fmt.Errorf("state: postgres backend requires a database connection")
		}
		return NewPostgresStore[T](opts.DB), nil
	default:
		return nil, fmt.Errorf("state: unknown backend %q; allowed: memory, bolt, postgres", opts.Backend)
	}
}
