package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hamed0406/probeexporter/internal/domain"
)

func TestStore_UpsertReplaces(t *testing.T) {
	s := New[domain.PortResult]()
	r1 := domain.PortResult{Target: "a:1", Status: domain.StatusClosed}
	r2 := domain.PortResult{Target: "a:1", Status: domain.StatusOpen, Open: true}

	s.Upsert("a", r1)
	s.Upsert("a", r2)

	got, ok := s.Get("a")
	if !ok {
		t.Fatalf("expected entry for a")
	}
	if got != r2 {
		t.Fatalf("want %+v, got %+v", r2, got)
	}
	if s.Len() != 1 {
		t.Fatalf("want 1 entry, got %d", s.Len())
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := New[domain.DomainResult]()
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestStore_SnapshotDistinctKeys(t *testing.T) {
	s := New[domain.PortResult]()
	const n = 100
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("host%d:80", i)
		s.Upsert(k, domain.PortResult{Target: k})
	}
	snap := s.Snapshot()
	if len(snap) != n {
		t.Fatalf("want %d entries, got %d", n, len(snap))
	}
	// the copy is detached from the store
	delete(snap, "host0:80")
	if _, ok := s.Get("host0:80"); !ok {
		t.Fatalf("deleting from snapshot must not touch the store")
	}
}

func TestStore_ConcurrentUpsertAndSnapshot(t *testing.T) {
	s := New[domain.PortResult]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("w%d-%d:1", w, i%10)
				s.Upsert(k, domain.PortResult{Target: k, Port: i})
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for k, v := range s.Snapshot() {
				if v.Target != k {
					t.Errorf("torn entry: key %s holds %s", k, v.Target)
					return
				}
			}
		}
	}()
	wg.Wait()
	if s.Len() != 80 {
		t.Fatalf("want 80 keys, got %d", s.Len())
	}
}

func TestStore_Find(t *testing.T) {
	s := New[domain.HTTPResult]()
	u := "https://example.com/health"
	s.Upsert(u, domain.HTTPResult{URL: u, URLHash: domain.URLHash(u)})
	s.Upsert("https://other", domain.HTTPResult{URL: "https://other", URLHash: domain.URLHash("https://other")})

	got, ok := s.Find(func(_ string, r domain.HTTPResult) bool { return r.URLHash == domain.URLHash(u) })
	if !ok || got.URL != u {
		t.Fatalf("find by hash: ok=%v got=%+v", ok, got)
	}
	if _, ok := s.Find(func(string, domain.HTTPResult) bool { return false }); ok {
		t.Fatalf("expected no match")
	}
}
