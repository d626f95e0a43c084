package topic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo  repository.TopicRepository
	judge judge.Judge
	loc   *time.Location
	now   func() time.Time

	daily singleflight.Group
}

func NewService(repo repository.TopicRepository, j judge.Judge, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, judge: j, loc: loc, now: time.Now}
}

func ToDTO(t repository.Topic) debatedto.Topic {
	return debatedto.Topic{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Difficulty:  t.Difficulty,
		Category:    t.Category,
	}
}

func (s *Service) List(ctx context.Context) ([]debatedto.Topic, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out := make([]debatedto.Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, ToDTO(t))
	}
	return out, nil
}

func (s *Service) startOfDay() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// Daily returns the topic created today, generating and storing one on the
// first call of the day. Concurrent callers share one generation.
func (s *Service) Daily(ctx context.Context) (debatedto.Topic, error) {
	since := s.startOfDay()
	v, err, _ := s.daily.Do(since.Format(time.DateOnly), func() (any, error) {
		existing, err := s.repo.LatestTopicSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("find today's topic: %w", err)
		}
		if existing != nil {
			return *existing, nil
		}
		gen, err := s.judge.GenerateTopic(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate daily topic: %w", err)
		}
		created, err := s.repo.CreateTopic(ctx, repository.CreateTopicInput{
			Title:       gen.Title,
			Description: gen.Description,
			Difficulty:  gen.Difficulty,
			Category:    gen.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("store daily topic: %w", err)
		}
		slog.Info("daily topic created", "topic_id", created.ID, "title", created.Title)
		return *created, nil
	})
	if err != nil {
		return debatedto.Topic{}, err
	}
	return ToDTO(v.(repository.Topic)), nil
}

// SeedIfEmpty inserts the built-in catalog when no topics exist yet.
func (s *Service) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.repo.CountTopics(ctx)
	if err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	seeds, err := SeedTopics()
	if err != nil {
		return 0, err
	}
	for _, in := range seeds {
		if _, err := s.repo.CreateTopic(ctx, in); err != nil {
			return 0, fmt.Errorf("seed topic %q: %w", in.Title, err)
		}
	}
	return len(seeds), nil
}
