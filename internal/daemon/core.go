// Package daemon wires the config loader, state store, vault/entity
// indexes, embedding cache, and batch pipeline into one bootstrapped Core,
// shared by flywheeld's serve command and flywheelctl's operator
// subcommands.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/flywheel-memory/flywheel/internal/config"
	"github.com/flywheel-memory/flywheel/internal/embedcache"
	"github.com/flywheel-memory/flywheel/internal/entityindex"
	"github.com/flywheel-memory/flywheel/internal/labelguard"
	"github.com/flywheel-memory/flywheel/internal/pipeline"
	"github.com/flywheel-memory/flywheel/internal/scanner"
	"github.com/flywheel-memory/flywheel/internal/storage/sqlite"
	"github.com/flywheel-memory/flywheel/internal/types"
	"github.com/flywheel-memory/flywheel/internal/vaultindex"
)

// hardRebuildTimeout bounds a cold-start full vault scan. A build that runs
// past this is abandoned rather than blocking Bootstrap indefinitely; the
// count of notes parsed before the deadline is preserved in the returned
// error.
const hardRebuildTimeout = 5 * time.Minute

// Core bundles every long-lived collaborator a flywheeld process or a
// flywheelctl subcommand needs to read or mutate vault state.
type Core struct {
	Root   string
	Config *config.Config

	Store         *sqlite.Store
	VaultTracker  *vaultindex.Tracker
	EntityTracker *entityindex.Tracker
	EmbedCache    *embedcache.Cache
	Guard         *labelguard.Guard
	Processor     *pipeline.Processor
}

// Bootstrap loads configuration, opens the state store, loads the vault
// index from a still-valid index cache or else builds it from a fresh scan,
// builds the entity index from it, and starts a batch Processor. Callers
// that only need read access (status, score) can ignore Processor; serve
// additionally wraps Core in a Watcher.
func Bootstrap(ctx context.Context, root string) (*Core, error) {
	cfg := config.Load(root)

	dbPath := filepath.Join(root, ".flywheel", "state.db")
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	idx, err := loadOrBuildIndex(ctx, root, cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	vaultTracker := vaultindex.NewTracker()
	vaultTracker.Replace(idx)

	entities, err := entityindex.Build(idx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build entity index: %w", err)
	}

	entityTracker := entityindex.NewTracker()
	entityTracker.Replace(entities)

	embedCache := embedcache.New(nil)

	bodies := entityindex.Bodies(idx)
	if err := entityindex.SyncEmbeddings(ctx, store, embedCache, entities, bodies); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("sync entity embeddings: %w", err)
	}

	for _, e := range entities {
		hash := entityindex.ContentHash(entityindex.EmbeddingText(e, bodies[e.Path]))
		_ = store.UpsertEntity(ctx, sqlite.EntityRow{Entity: e, ContentHash: hash})
	}

	processor := pipeline.NewProcessor(root, cfg, vaultTracker, entityTracker, store, embedCache)

	return &Core{
		Root:          root,
		Config:        cfg,
		Store:         store,
		VaultTracker:  vaultTracker,
		EntityTracker: entityTracker,
		EmbedCache:    embedCache,
		Guard:         labelguard.New(),
		Processor:     processor,
	}, nil
}

// Close stops the batch processor and releases the state store handle.
func (c *Core) Close() error {
	c.Processor.Stop()
	return c.Store.Close()
}

// loadOrBuildIndex applies the warm-start cache contract: reuse the
// persisted vault_index_cache row if it is still valid for the vault's
// current file count, otherwise rebuild from scratch under a hard timeout
// and persist the rebuilt index as the new cache row.
func loadOrBuildIndex(ctx context.Context, root string, cfg *config.Config, store *sqlite.Store) (*types.VaultIndex, error) {
	files, err := scanner.Walk(root, cfg.ExcludedDirs)
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}

	payload, cachedCount, cachedAt, ok, err := store.LoadIndexCache(ctx)
	if err == nil && ok && vaultindex.CacheValid(len(files), cachedCount, cachedAt, time.Duration(cfg.IndexCacheMaxAgeMin)*time.Minute) {
		var cp vaultindex.CachePayload
		if unmarshalErr := json.Unmarshal(payload, &cp); unmarshalErr == nil {
			return vaultindex.FromCachePayload(cp, cachedAt), nil
		}
	}

	buildCtx, cancel := context.WithTimeout(ctx, hardRebuildTimeout)
	defer cancel()

	buildResult, buildErr := vaultindex.Build(buildCtx, root, cfg.ExcludedDirs, runtime.NumCPU())
	if buildErr != nil {
		parsed := 0
		if buildResult != nil {
			parsed = len(buildResult.Index.Notes)
		}
		return nil, fmt.Errorf("build vault index (partial progress: %d/%d notes parsed): %w",
			parsed, len(files), buildErr)
	}
	if encoded, mErr := json.Marshal(vaultindex.CachePayloadFrom(buildResult.Index)); mErr == nil {
		_ = store.SaveIndexCache(ctx, len(buildResult.Index.Notes), encoded)
	}
	return buildResult.Index, nil
}
