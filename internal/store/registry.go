package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/remote"
)

// Workspace is what the server keeps for one signed-in user: the records
// store, the edit selection and a context that ends when the workspace is
// evicted or dropped.
type Workspace struct {
	Store     *Store
	Selection *Selection

	ctx    context.Context
	cancel context.CancelFunc
}

func (w *Workspace) UserID() string { return w.Store.UserID() }

// Done is closed once the workspace has been evicted.
func (w *Workspace) Done() <-chan struct{} { return w.ctx.Done() }

// Delete removes the record and closes the edit selection if it was open on it.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	if err := w.Store.Delete(ctx, id); err != nil {
		return err
	}
	w.Selection.ClearIf(id)
	return nil
}

// Update applies p and closes the edit selection.
func (w *Workspace) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	r, err := w.Store.Update(ctx, id, p)
	if err != nil {
		return core.Record{}, err
	}
	w.Selection.Clear()
	return r, nil
}

type RegistryConfig struct {
	MaxWorkspaces int
	TTL           time.Duration
	LoadTimeout   time.Duration
}

// Registry owns one Workspace per user id in a bounded, expiring cache.
type Registry struct {
	backend remote.Backend
	cfg     RegistryConfig
	logger  *slog.Logger

	workspaces *cache.LRUCache[*Workspace]
	loads      singleflight.Group
	base       context.Context
	stop       context.CancelFunc
}

var _ cache.Cleaner = (*Registry)(nil)

func NewRegistry(backend remote.Backend, cfg RegistryConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxWorkspaces <= 0 {
		cfg.MaxWorkspaces = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 7 * time.Second
	}
	base, stop := context.WithCancel(context.Background())
	r := &Registry{backend: backend, cfg: cfg, logger: logger, base: base, stop: stop}
	r.workspaces = cache.NewLRUCache[*Workspace](cfg.MaxWorkspaces, cfg.TTL, func(userID string, w *Workspace) {
		w.cancel()
		r.logger.Debug("Workspace evicted", "user_id", userID)
	})
	return r
}

// Get returns the user's workspace, loading its records on first access.
// When the load fails the workspace is still returned together with the
// error; the next Get retries the load.
func (r *Registry) Get(ctx context.Context, userID string) (*Workspace, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	w, created := r.workspaces.GetOrCreate(userID, func() *Workspace {
		wctx, cancel := context.WithCancel(r.base)
		return &Workspace{
			Store:     New(userID, r.backend, r.logger),
			Selection: &Selection{},
			ctx:       wctx,
			cancel:    cancel,
		}
	})
	if created {
		r.logger.DebugContext(ctx, "Workspace created", "user_id", userID)
	}
	if w.Store.Loaded() {
		return w, nil
	}
	return w, r.load(ctx, w)
}

// load collapses concurrent loads of one workspace. The load runs on the
// workspace context; each caller stops waiting when its own ctx ends.
func (r *Registry) load(ctx context.Context, w *Workspace) error {
	// Keyed by workspace so a replacement never joins an evicted one's load.
	ch := r.loads.DoChan(fmt.Sprintf("%s@%p", w.UserID(), w), func() (any, error) {
		lctx, cancel := context.WithTimeout(w.ctx, r.cfg.LoadTimeout)
		defer cancel()
		return nil, w.Store.Load(lctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("load records: %w: %w", remote.ErrTransport, ctx.Err())
	}
}

// Peek returns the workspace without creating or loading it.
func (r *Registry) Peek(userID string) (*Workspace, bool) {
	return r.workspaces.Get(userID)
}

// Drop evicts the user's workspace, cancelling any in-flight load.
func (r *Registry) Drop(userID string) {
	r.workspaces.Delete(userID)
}

func (r *Registry) Len() int { return r.workspaces.Size() }

func (r *Registry) CleanExpired() int { return r.workspaces.CleanExpired() }

// Close evicts every workspace.
func (r *Registry) Close() {
	r.workspaces.Purge()
	r.stop()
}
