package topic

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	repositoryimpl "github.com/foxseedlab/debaide/external/repository"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

type countingJudge struct {
	judge.Judge
	calls atomic.Int32
}

func (j *countingJudge) GenerateTopic(context.Context) (judge.GeneratedTopic, error) {
	j.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	return judge.GeneratedTopic{Title: "Cities should ban cars", Difficulty: "hard", Category: "environment"}, nil
}

var _ judge.Judge = (*countingJudge)(nil)

func TestSeedTopics_Catalog(t *testing.T) {
	seeds, err := SeedTopics()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeds) != 10 {
		t.Fatalf("expected 10 seed topics, got %d", len(seeds))
	}
	if seeds[0].Title != "Social media does more harm than good" || seeds[0].Difficulty != "medium" {
		t.Fatalf("unexpected first topic: %+v", seeds[0])
	}
}

func TestParseCatalog_RejectsUntitled(t *testing.T) {
	if _, err := parseCatalog([]byte("topics:\n  - description: nothing\n")); err == nil {
		t.Fatal("expected error for entry without title")
	}
}

func TestSeedIfEmpty_OnlyOnce(t *testing.T) {
	repo := repositoryimpl.NewMemoryRepository()
	s := NewService(repo, judge.NewService(nil), time.UTC)

	n, err := s.SeedIfEmpty(context.Background())
	if err != nil || n != 10 {
		t.Fatalf("unexpected first seed: %d %v", n, err)
	}
	n, err = s.SeedIfEmpty(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("unexpected second seed: %d %v", n, err)
	}
	list, _ := s.List(context.Background())
	if len(list) != 10 {
		t.Fatalf("expected 10 topics, got %d", len(list))
	}
}

func TestDaily_GeneratesOncePerDay(t *testing.T) {
	repo := repositoryimpl.NewMemoryRepository()
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })
	j := &countingJudge{}
	s := NewService(repo, j, time.UTC)
	s.now = func() time.Time { return now }

	var wg sync.WaitGroup
	results := make([]debatedto.Topic, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := s.Daily(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	again, err := s.Daily(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.calls.Load() != 1 {
		t.Fatalf("expected one generation, got %d", j.calls.Load())
	}
	for _, r := range results {
		if r.ID != again.ID {
			t.Fatalf("expected same topic, got %d and %d", r.ID, again.ID)
		}
	}
	if again.Title != "Cities should ban cars" {
		t.Fatalf("unexpected title: %s", again.Title)
	}
}

func TestDaily_IgnoresYesterdaysTopic(t *testing.T) {
	repo := repositoryimpl.NewMemoryRepository()
	yesterday := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return yesterday })
	s := NewService(repo, judge.NewService(nil), time.UTC)
	if _, err := s.SeedIfEmpty(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	today := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return today })
	s.now = func() time.Time { return today }

	got, err := s.Daily(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != judge.FallbackTopic().Title || got.ID != 11 {
		t.Fatalf("expected freshly generated fallback topic, got %+v", got)
	}
}
