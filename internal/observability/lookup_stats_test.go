package observability

import (
	"sync"
	"testing"
	"time"
)

// TestRecordConcurrent tests concurrent RecordHit/RecordMiss calls for race conditions.
func TestRecordConcurrent(t *testing.T) {
	ls := NewLookupStats(time.Hour)
	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				ls.RecordHit("HeroConfig")
				ls.RecordMiss("HeroConfig")
				ls.RecordHit("ItemConfig")
			}
		}()
	}

	wg.Wait()

	stats := ls.Snapshot()
	if len(stats) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(stats))
	}

	expected := int64(numGoroutines * recordsPerGoroutine)
	hero, ok := ls.Get("HeroConfig")
	if !ok {
		t.Fatal("expected HeroConfig stats")
	}
	if hero.Hits != expected || hero.Misses != expected {
		t.Errorf("expected %d hits and misses, got %d/%d", expected, hero.Hits, hero.Misses)
	}
	if hero.Total() != 2*expected {
		t.Errorf("expected total %d, got %d", 2*expected, hero.Total())
	}
}

// TestSnapshotOrdering tests that Snapshot is sorted by sheet name.
func TestSnapshotOrdering(t *testing.T) {
	ls := NewLookupStats(time.Hour)
	ls.RecordHit("Zeta")
	ls.RecordHit("Alpha")
	ls.RecordMiss("Mid")

	stats := ls.Snapshot()
	want := []string{"Alpha", "Mid", "Zeta"}
	for i, name := range want {
		if stats[i].Sheet != name {
			t.Errorf("position %d: expected %s, got %s", i, name, stats[i].Sheet)
		}
	}
}

// TestGetTopMisses tests ordering, limits and filtering of sheets without misses.
func TestGetTopMisses(t *testing.T) {
	ls := NewLookupStats(time.Hour)

	for i := 0; i < 10; i++ {
		ls.RecordMiss("HeroConfig")
	}
	for i := 0; i < 5; i++ {
		ls.RecordMiss("ItemConfig")
	}
	for i := 0; i < 20; i++ {
		ls.RecordMiss("SkillConfig")
	}
	ls.RecordHit("GlobalConfig")

	top := ls.GetTopMisses(10)
	if len(top) != 3 {
		t.Fatalf("expected 3 sheets with misses, got %d", len(top))
	}
	if top[0].Sheet != "SkillConfig" || top[1].Sheet != "HeroConfig" || top[2].Sheet != "ItemConfig" {
		t.Errorf("unexpected order: %v", top)
	}

	if got := ls.GetTopMisses(1); len(got) != 1 || got[0].Sheet != "SkillConfig" {
		t.Errorf("expected only SkillConfig, got %v", got)
	}
	if got := ls.GetTopMisses(0); len(got) != 0 {
		t.Errorf("expected empty result for n=0, got %d", len(got))
	}
}

// TestRecordInvalidSeparateFromMisses tests that rejected keys are counted on
// their own and never show up as misses.
func TestRecordInvalidSeparateFromMisses(t *testing.T) {
	ls := NewLookupStats(0)
	ls.RecordInvalid("HeroConfig")
	ls.RecordInvalid("HeroConfig")
	ls.RecordMiss("HeroConfig")

	s, ok := ls.Get("HeroConfig")
	if !ok {
		t.Fatal("expected HeroConfig to be tracked")
	}
	if s.Invalid != 2 || s.Misses != 1 || s.Hits != 0 {
		t.Errorf("unexpected counters %+v", s)
	}
	if s.Total() != 3 {
		t.Errorf("expected total 3, got %d", s.Total())
	}

	ls.RecordInvalid("ItemConfig")
	if top := ls.GetTopMisses(10); len(top) != 1 || top[0].Sheet != "HeroConfig" {
		t.Errorf("invalid keys must not rank as misses: %+v", top)
	}
}

// TestGetUnknownSheet tests that Get reports sheets never recorded.
func TestGetUnknownSheet(t *testing.T) {
	ls := NewLookupStats(time.Hour)
	s, ok := ls.Get("Nope")
	if ok {
		t.Error("expected unknown sheet")
	}
	if s.Sheet != "Nope" || s.Total() != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

// TestPrune tests that idle sheets are dropped.
func TestPrune(t *testing.T) {
	ls := NewLookupStats(50 * time.Millisecond)
	ls.RecordHit("Old")
	time.Sleep(100 * time.Millisecond)
	ls.RecordHit("New")

	ls.Prune()

	if _, ok := ls.Get("Old"); ok {
		t.Error("expected Old to be pruned")
	}
	if _, ok := ls.Get("New"); !ok {
		t.Error("expected New to survive")
	}
}

// TestPruneDisabled tests that a zero window keeps everything.
func TestPruneDisabled(t *testing.T) {
	ls := NewLookupStats(0)
	ls.RecordHit("A")
	ls.Prune()
	if _, ok := ls.Get("A"); !ok {
		t.Error("expected A to survive")
	}
}

// TestReset tests that Reset clears every sheet.
func TestReset(t *testing.T) {
	ls := NewLookupStats(time.Hour)
	ls.RecordHit("A")
	ls.Reset()
	if len(ls.Snapshot()) != 0 {
		t.Error("expected empty snapshot after reset")
	}
}
