package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cascade/internal/domain/history"
)

// HistoryRepo stores one namespace's contribution history under a
// version-tagged key. Keys from any other version are purged by Migrate.
type HistoryRepo struct {
	kv            KV
	version       int
	namespace     string
	retentionDays int
}

// NewHistoryRepo creates a repository for (version, namespace).
func NewHistoryRepo(kv KV, version int, namespace string, retentionDays int) *HistoryRepo {
	return &HistoryRepo{
		kv:            kv,
		version:       version,
		namespace:     namespace,
		retentionDays: retentionDays,
	}
}

// Key is the storage key of the current version, e.g. "cascade-dcs-v4".
func (r *HistoryRepo) Key() string {
	return fmt.Sprintf("%s%d", r.prefix(), r.version)
}

// Version returns the schema version this repository reads and writes.
func (r *HistoryRepo) Version() int { return r.version }

func (r *HistoryRepo) prefix() string {
	return r.namespace + "-dcs-v"
}

// Migrate deletes every history key of another version and returns the
// deleted keys.
func (r *HistoryRepo) Migrate(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, r.prefix())
	if err != nil {
		return nil, fmt.Errorf("list history keys: %w", err)
	}

	var purged []string
	for _, k := range keys {
		suffix := strings.TrimPrefix(k, r.prefix())
		v, err := strconv.Atoi(suffix)
		if err != nil || v == r.version {
			continue
		}
		if err := r.kv.Delete(ctx, k); err != nil {
			return purged, fmt.Errorf("purge %s: %w", k, err)
		}
		purged = append(purged, k)
	}

	if len(purged) > 0 {
		log.Info().Strs("keys", purged).Int("version", r.version).Msg("purged history from other schema versions")
	}
	return purged, nil
}

// Load migrates then reads the current history. A missing key is an empty
// history; an unreadable payload is discarded and reported.
func (r *HistoryRepo) Load(ctx context.Context) (history.History, error) {
	if _, err := r.Migrate(ctx); err != nil {
		return history.History{}, err
	}

	data, err := r.kv.Get(ctx, r.Key())
	if errors.Is(err, ErrNotFound) {
		return history.History{}, nil
	}
	if err != nil {
		return history.History{}, fmt.Errorf("read %s: %w", r.Key(), err)
	}

	h := history.History{}
	if err := json.Unmarshal(data, &h); err != nil {
		return history.History{}, fmt.Errorf("decode %s: %w", r.Key(), err)
	}
	return h, nil
}

// Save prunes h to the retention window ending at ref and writes it.
func (r *HistoryRepo) Save(ctx context.Context, h history.History, ref time.Time) error {
	h.Prune(ref, r.retentionDays)

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.kv.Set(ctx, r.Key(), data); err != nil {
		return fmt.Errorf("write %s: %w", r.Key(), err)
	}
	return nil
}

// Purge deletes the current version's history.
func (r *HistoryRepo) Purge(ctx context.Context) error {
	if err := r.kv.Delete(ctx, r.Key()); err != nil {
		return fmt.Errorf("delete %s: %w", r.Key(), err)
	}
	return nil
}
