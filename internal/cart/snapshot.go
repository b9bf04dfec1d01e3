package cart

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/verdantrow/storefront-backend/pkg/errors"
	"github.com/verdantrow/storefront-backend/pkg/logger"
)

// SnapshotVersion is the current persisted schema version. A bump invalidates
// every stored cart: snapshots with any other version are discarded whole, by
// design, rather than partially migrated.
const SnapshotVersion = 3

// Snapshot is the durable shape of the cart. CartState already contains only
// persisted fields; enhanced/derived data never reaches storage.
type Snapshot struct {
	CartState
	Version int `json:"version"`
}

// KV is the durable key-value slot the snapshot lives under. pkg/redis
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// Store reads and writes versioned cart snapshots.
type Store struct {
	kv   KV
	key  string
	logg *logger.Logger
}

// NewStore builds a snapshot store over the given slot.
func NewStore(kv KV, key string, logg *logger.Logger) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv storage required")
	}
	if key == "" {
		return nil, fmt.Errorf("storage key required")
	}
	return &Store{kv: kv, key: key, logg: logg}, nil
}

// Save overwrites the stored snapshot with the given state at the current
// schema version. Saving the same state twice is a no-op at the storage
// level.
func (s *Store) Save(ctx context.Context, state CartState) error {
	raw, err := json.Marshal(Snapshot{CartState: state, Version: SnapshotVersion})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart snapshot")
	}
	return nil
}

// Load returns the stored cart state, or nil when no usable cart exists.
// A snapshot that fails to decode or carries a different schema version is
// deleted and reported as "no cart"; the caller then starts a fresh one.
func (s *Store) Load(ctx context.Context) (*CartState, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart snapshot")
	}
	if !found {
		return nil, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.discard(ctx, "cart snapshot undecodable, discarding")
		return nil, nil
	}
	if snapshot.Version != SnapshotVersion {
		s.discard(ctx, fmt.Sprintf("cart snapshot version %d != %d, discarding", snapshot.Version, SnapshotVersion))
		return nil, nil
	}

	state := snapshot.CartState
	return &state, nil
}

// Clear removes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}

func (s *Store) discard(ctx context.Context, msg string) {
	if err := s.kv.Del(ctx, s.key); err != nil && s.logg != nil {
		s.logg.Error(ctx, "failed to delete stale cart snapshot", err)
		return
	}
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
