package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// RegionState tracks where a cache region sits in its lifecycle:
// Fresh → Optimistic → Stale → Fresh on success, with a RolledBack stop
// between Optimistic and Stale when the remote operation fails. Stale and
// RolledBack only exist to force the next read through the authoritative
// path.
type RegionState int

const (
	RegionFresh RegionState = iota
	RegionOptimistic
	RegionStale
	RegionRolledBack
)

// Cache regions. Every key is prefixed "region:".
const (
	RegionHealth = "health"
	RegionVuln   = "vuln"
)

// regionCache is the session-wide mirror of access-service results. It is
// shared by every reader and writer, and writers may only touch it through
// beginMutation / rollback / settle so that rollback stays exact.
type regionCache struct {
	mu       sync.Mutex
	store    *cache.Cache
	states   map[string]RegionState
	refreshs map[string]context.CancelFunc
}

func newRegionCache() *regionCache {
	return &regionCache{
		store:    cache.New(10*time.Minute, 15*time.Minute),
		states:   map[string]RegionState{},
		refreshs: map[string]context.CancelFunc{},
	}
}

func regionOf(key string) string {
	region, _, _ := strings.Cut(key, ":")
	return region
}

// lookup serves cached values only while the region is Fresh or Optimistic.
// Stale and RolledBack regions miss deliberately, pushing the caller to
// refetch.
func (rc *regionCache) lookup(key string) (any, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	state := rc.states[regionOf(key)]
	if state != RegionFresh && state != RegionOptimistic {
		return nil, false
	}
	return rc.store.Get(key)
}

// put stores an authoritative read result and marks the region fresh.
func (rc *regionCache) put(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.store.Set(key, value, cache.DefaultExpiration)
	rc.states[regionOf(key)] = RegionFresh
}

// putRefreshed stores a background refresh result unless the refresh was
// cancelled or a mutation has gone optimistic in the meantime. A stale
// refresh must never clobber an optimistic value.
func (rc *regionCache) putRefreshed(ctx context.Context, key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if rc.states[regionOf(key)] == RegionOptimistic {
		return
	}
	rc.store.Set(key, value, cache.DefaultExpiration)
	rc.states[regionOf(key)] = RegionFresh
}

// registerRefresh records the cancel handle for an in-flight background
// refresh, cancelling any previous one for the same region.
func (rc *regionCache) registerRefresh(region string, cancel context.CancelFunc) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if prev, ok := rc.refreshs[region]; ok {
		prev()
	}
	rc.refreshs[region] = cancel
}

// beginMutation starts the optimistic protocol for a region: cancel any
// in-flight refresh, snapshot every entry under the region, and mark it
// optimistic. The returned snapshot restores the region verbatim.
func (rc *regionCache) beginMutation(region string) map[string]any {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cancel, ok := rc.refreshs[region]; ok {
		cancel()
		delete(rc.refreshs, region)
	}

	snapshot := map[string]any{}
	for key, item := range rc.store.Items() {
		if regionOf(key) == region {
			snapshot[key] = item.Object
		}
	}

	rc.states[region] = RegionOptimistic
	return snapshot
}

// apply transforms every cached list under the region. fn must return a new
// value rather than mutating in place, or the snapshot taken by
// beginMutation would be corrupted.
func (rc *regionCache) apply(region string, fn func(key string, value any) any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for key, item := range rc.store.Items() {
		if regionOf(key) != region {
			continue
		}
		rc.store.Set(key, fn(key, item.Object), cache.DefaultExpiration)
	}
}

// rollback restores the snapshot taken by beginMutation, undoing the
// optimistic change completely.
func (rc *regionCache) rollback(region string, snapshot map[string]any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for key := range rc.store.Items() {
		if regionOf(key) == region {
			rc.store.Delete(key)
		}
	}
	for key, value := range snapshot {
		rc.store.Set(key, value, cache.DefaultExpiration)
	}
	rc.states[region] = RegionRolledBack
}

// settle marks the region stale so the next read refetches authoritative
// data, superseding whatever the optimistic window left behind.
func (rc *regionCache) settle(region string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.states[region] = RegionStale
}

// state reports the region's current lifecycle position.
func (rc *regionCache) state(region string) RegionState {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.states[region]
}
