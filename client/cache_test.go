package client

import (
	"context"
	"testing"
)

func TestLookupFollowsRegionState(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"a"})

	if _, found := rc.lookup("health:owner:primary:po1"); !found {
		t.Fatalf("fresh region must serve cached values")
	}

	rc.settle(RegionHealth)
	if _, found := rc.lookup("health:owner:primary:po1"); found {
		t.Fatalf("stale region must miss")
	}

	rc.put("health:owner:primary:po1", []string{"b"})
	if _, found := rc.lookup("health:owner:primary:po1"); !found {
		t.Fatalf("authoritative put must return the region to fresh")
	}
}

func TestLookupIsolatesRegions(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"h"})
	rc.put("vuln:owner:primary:po1", []string{"v"})

	rc.settle(RegionHealth)

	if _, found := rc.lookup("health:owner:primary:po1"); found {
		t.Fatalf("health region must be stale")
	}
	if _, found := rc.lookup("vuln:owner:primary:po1"); !found {
		t.Fatalf("vuln region must be untouched")
	}
}

func TestRollbackRestoresSnapshotVerbatim(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"a", "b"})
	rc.put("health:group:g1", []string{"a"})

	snapshot := rc.beginMutation(RegionHealth)
	if rc.state(RegionHealth) != RegionOptimistic {
		t.Fatalf("expected optimistic state")
	}

	rc.apply(RegionHealth, func(key string, value any) any {
		return append([]string{"local-x"}, value.([]string)...)
	})
	rc.store.Set("health:owner:associated:sr1", []string{"extra"}, 0)

	rc.rollback(RegionHealth, snapshot)

	if rc.state(RegionHealth) != RegionRolledBack {
		t.Fatalf("expected rolled-back state")
	}
	if _, found := rc.store.Get("health:owner:associated:sr1"); found {
		t.Fatalf("keys added during the optimistic window must be dropped")
	}
	v, found := rc.store.Get("health:owner:primary:po1")
	if !found {
		t.Fatalf("snapshot key missing after rollback")
	}
	got := v.([]string)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected snapshot restored verbatim, got %v", got)
	}
}

func TestOptimisticValuesServeDuringMutation(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"a"})

	rc.beginMutation(RegionHealth)
	rc.apply(RegionHealth, func(key string, value any) any {
		return append(value.([]string), "local-x")
	})

	v, found := rc.lookup("health:owner:primary:po1")
	if !found {
		t.Fatalf("optimistic region must serve cached values")
	}
	if got := v.([]string); len(got) != 2 || got[1] != "local-x" {
		t.Fatalf("expected optimistic value, got %v", got)
	}
}

func TestPutRefreshedDropsCancelled(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.putRefreshed(ctx, "health:owner:primary:po1", []string{"late"})

	v, _ := rc.lookup("health:owner:primary:po1")
	if got := v.([]string); got[0] != "a" {
		t.Fatalf("cancelled refresh must not land, got %v", got)
	}
}

func TestPutRefreshedDropsDuringOptimisticWindow(t *testing.T) {
	rc := newRegionCache()
	rc.put("health:owner:primary:po1", []string{"a"})
	rc.beginMutation(RegionHealth)

	rc.putRefreshed(context.Background(), "health:owner:primary:po1", []string{"late"})

	v, _ := rc.lookup("health:owner:primary:po1")
	if got := v.([]string); got[0] != "a" {
		t.Fatalf("refresh must not clobber an optimistic region, got %v", got)
	}
}

func TestBeginMutationCancelsRefresh(t *testing.T) {
	rc := newRegionCache()
	ctx, cancel := context.WithCancel(context.Background())
	rc.registerRefresh(RegionHealth, cancel)

	rc.beginMutation(RegionHealth)

	if ctx.Err() == nil {
		t.Fatalf("in-flight refresh must be cancelled by a mutation")
	}
}

func TestRegisterRefreshCancelsPrevious(t *testing.T) {
	rc := newRegionCache()
	first, cancelFirst := context.WithCancel(context.Background())
	rc.registerRefresh(RegionHealth, cancelFirst)

	_, cancelSecond := context.WithCancel(context.Background())
	rc.registerRefresh(RegionHealth, cancelSecond)

	if first.Err() == nil {
		t.Fatalf("a newer refresh must cancel the previous one")
	}
}
