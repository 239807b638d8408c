// Package backend builds the records backend selected by configuration.
package backend

import (
	"context"
	"time"

	"fintrack/internal/remote"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is the backend plus its cleanup.
type BackendResult struct {
	Backend remote.Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// api
	APIBaseURL    string
	RemoteTimeout time.Duration

	// sqlite
	SQLiteDBPath string

	// memory
	SeedFile string

	// Record events; empty URL disables them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	APIBackend    BackendType = "api"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
