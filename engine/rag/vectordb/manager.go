package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/documind/documind/pkg/logger"
)

// Manager caches shared vector store instances keyed by configuration ID, so
// concurrent first-use from multiple requests performs a single
// initialization and later callers observe the already-initialized store.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*sharedStoreEntry
}

type sharedStoreEntry struct {
	store     Store
	refs      int
	signature string
}

var defaultManager = NewManager()

// NewManager constructs an empty shared vector store manager.
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*sharedStoreEntry)}
}

// AcquireShared returns a shared vector store instance along with a release
// function, using the package-level manager.
func AcquireShared(ctx context.Context, cfg *Config) (Store, func(context.Context) error, error) {
	return defaultManager.AcquireShared(ctx, cfg)
}

// AcquireShared acquires (or creates) a shared store entry keyed by the config ID.
func (m *Manager) AcquireShared(ctx context.Context, cfg *Config) (Store, func(context.Context) error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("vector_db: config is required")
	}
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return nil, nil, errMissingID
	}
	signature := signatureKey(cfg)
	if store, release, ok, err := m.tryReuseExistingStore(id, signature); err != nil || ok {
		return store, release, err
	}
	store, err := New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m.registerSharedStore(ctx, id, signature, store)
}

func (m *Manager) tryReuseExistingStore(
	id string,
	signature string,
) (Store, func(context.Context) error, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[id]
	if !ok {
		return nil, nil, false, nil
	}
	if entry.signature != signature {
		return nil, nil, false, fmt.Errorf("vector_db %q: configuration mismatch for shared store", id)
	}
	entry.refs++
	return entry.store, m.releaseFunc(id, signature), true, nil
}

// registerSharedStore caches the instantiated store, handling races with
// concurrent callers that initialized the same ID in parallel.
func (m *Manager) registerSharedStore(
	ctx context.Context,
	id string,
	signature string,
	store Store,
) (Store, func(context.Context) error, error) {
	m.mu.Lock()
	entry, ok := m.stores[id]
	if ok {
		if entry.signature != signature {
			m.mu.Unlock()
			closeRedundantStore(ctx, id, store)
			return nil, nil, fmt.Errorf("vector_db %q: configuration mismatch for shared store", id)
		}
		entry.refs++
		existing := entry.store
		m.mu.Unlock()
		closeRedundantStore(ctx, id, store)
		return existing, m.releaseFunc(id, signature), nil
	}
	m.stores[id] = &sharedStoreEntry{store: store, refs: 1, signature: signature}
	m.mu.Unlock()
	return store, m.releaseFunc(id, signature), nil
}

func closeRedundantStore(ctx context.Context, id string, store Store) {
	if err := store.Close(ctx); err != nil {
		logger.FromContext(ctx).Warn(
			"failed to close redundant vector store",
			"vector_id", id,
			"error", err,
		)
	}
}

func (m *Manager) releaseFunc(id string, signature string) func(context.Context) error {
	return func(ctx context.Context) error {
		m.mu.Lock()
		entry, ok := m.stores[id]
		if !ok || entry.signature != signature {
			m.mu.Unlock()
			return nil
		}
		entry.refs--
		if entry.refs > 0 {
			m.mu.Unlock()
			return nil
		}
		delete(m.stores, id)
		m.mu.Unlock()
		return entry.store.Close(ctx)
	}
}

// signatureKey renders the configuration fields that must agree for two
// callers to share one store instance.
func signatureKey(cfg *Config) string {
	parts := []string{
		string(cfg.Provider),
		cfg.DSN,
		cfg.Path,
		cfg.Collection,
		cfg.Metric,
		fmt.Sprint(cfg.Dimension),
	}
	keys := make([]string, 0, len(cfg.Auth))
	for k := range cfg.Auth {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+cfg.Auth[k])
	}
	return strings.Join(parts, "|")
}
