package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/repository"
)

// MemoryRepository keeps everything in process memory. It is used for local
// development without a database and as the store behind package tests.
type MemoryRepository struct {
	mu sync.Mutex

	now func() time.Time

	users          map[string]repository.User
	stats          map[string]repository.UserStats
	topics         []repository.Topic
	sessions       map[string]repository.Session
	segments       []repository.Segment
	scorecards     map[string]repository.Scorecard
	battles        map[string]repository.Battle
	battleSegments []repository.BattleSegment

	nextTopicID   int64
	nextSegmentID int64
	nextBattleSeg int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:        time.Now,
		users:      make(map[string]repository.User),
		stats:      make(map[string]repository.UserStats),
		sessions:   make(map[string]repository.Session),
		scorecards: make(map[string]repository.Scorecard),
		battles:    make(map[string]repository.Battle),
	}
}

// SetClock overrides the time source used for created_at values.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryRepository) CreateUser(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == input.Username || u.Email == input.Email {
			return nil, repository.ErrDuplicate
		}
	}
	if _, ok := r.users[input.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	u := repository.User{
		ID:             input.ID,
		Username:       input.Username,
		Email:          input.Email,
		HashedPassword: input.HashedPassword,
		CreatedAt:      r.now(),
	}
	r.users[u.ID] = u
	r.stats[u.ID] = repository.UserStats{UserID: u.ID, UpdatedAt: u.CreatedAt}
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryRepository) GetUserByUsername(_ context.Context, username string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) statsLocked(userID string) repository.UserStats {
	s, ok := r.stats[userID]
	if !ok {
		s = repository.UserStats{UserID: userID, UpdatedAt: r.now()}
		r.stats[userID] = s
	}
	return s
}

func (r *MemoryRepository) GetStats(_ context.Context, userID string) (*repository.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsLocked(userID)
	return &s, nil
}

func (r *MemoryRepository) UpdateStats(_ context.Context, userID string, fn func(*repository.UserStats)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsLocked(userID)
	fn(&s)
	s.UserID = userID
	s.UpdatedAt = r.now()
	r.stats[userID] = s
	return nil
}

func (r *MemoryRepository) ListTopics(_ context.Context) ([]repository.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.Topic(nil), r.topics...), nil
}

func (r *MemoryRepository) GetTopic(_ context.Context, id int64) (*repository.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) LatestTopicSince(_ context.Context, since time.Time) (*repository.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *repository.Topic
	for i := range r.topics {
		t := r.topics[i]
		if t.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || !t.CreatedAt.Before(latest.CreatedAt) {
			latest = &t
		}
	}
	return latest, nil
}

func (r *MemoryRepository) CreateTopic(_ context.Context, input repository.CreateTopicInput) (*repository.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTopicID++
	t := repository.Topic{
		ID:          r.nextTopicID,
		Title:       input.Title,
		Description: input.Description,
		Difficulty:  input.Difficulty,
		Category:    input.Category,
		CreatedAt:   r.now(),
	}
	r.topics = append(r.topics, t)
	return &t, nil
}

func (r *MemoryRepository) CountTopics(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics), nil
}

func (r *MemoryRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[input.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	s := repository.Session{
		ID:        input.ID,
		TopicID:   input.TopicID,
		UserID:    input.UserID,
		Stance:    input.Stance,
		Status:    debate.SessionInProgress,
		CreatedAt: r.now(),
	}
	r.sessions[s.ID] = s
	return &s, nil
}

func (r *MemoryRepository) GetSession(_ context.Context, id string) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) InsertSegment(_ context.Context, input repository.InsertSegmentInput) (*repository.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSegmentID++
	seg := repository.Segment{
		ID:         r.nextSegmentID,
		SessionID:  input.SessionID,
		Kind:       input.Kind,
		AudioURL:   input.AudioURL,
		Transcript: input.Transcript,
		Duration:   input.Duration,
		CreatedAt:  r.now(),
	}
	r.segments = append(r.segments, seg)
	return &seg, nil
}

func (r *MemoryRepository) ListSegmentsBySessionID(_ context.Context, sessionID string) ([]repository.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []repository.Segment
	for _, seg := range r.segments {
		if seg.SessionID == sessionID {
			list = append(list, seg)
		}
	}
	return list, nil
}

func (r *MemoryRepository) GetScorecard(_ context.Context, sessionID string) (*repository.Scorecard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.scorecards[sessionID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) SaveScorecard(_ context.Context, input repository.SaveScorecardInput) (*repository.Scorecard, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.scorecards[input.SessionID]; ok {
		return &c, false, nil
	}
	c := repository.Scorecard{SessionID: input.SessionID, Result: input.Result, CreatedAt: r.now()}
	r.scorecards[input.SessionID] = c
	if s, ok := r.sessions[input.SessionID]; ok {
		completed := input.CompletedAt
		s.Status = debate.SessionCompleted
		s.CompletedAt = &completed
		r.sessions[s.ID] = s
	}
	return &c, true, nil
}

func (r *MemoryRepository) CreateBattle(_ context.Context, input repository.CreateBattleInput) (*repository.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.battles {
		if b.Player1ID == input.Player1ID && b.Status == debate.BattleWaiting {
			delete(r.battles, id)
		}
	}
	if _, ok := r.battles[input.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	b := repository.Battle{
		ID:             input.ID,
		TopicID:        input.TopicID,
		Player1ID:      input.Player1ID,
		Player1Stance:  input.Player1Stance,
		Status:         debate.BattleWaiting,
		CurrentTurn:    input.Player1ID,
		CurrentSegment: debate.SegmentOpening,
		CreatedAt:      r.now(),
	}
	r.battles[b.ID] = b
	return &b, nil
}

func (r *MemoryRepository) GetBattle(_ context.Context, id string) (*repository.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *MemoryRepository) JoinBattle(_ context.Context, input repository.JoinBattleInput) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[input.BattleID]
	if !ok || b.Status != debate.BattleWaiting || b.Player2ID != "" || b.Player1ID == input.Player2ID {
		return false, nil
	}
	b.Player2ID = input.Player2ID
	b.Player2Stance = input.Player2Stance
	b.Status = debate.BattleInProgress
	r.battles[b.ID] = b
	return true, nil
}

func (r *MemoryRepository) ListWaitingBattles(_ context.Context, excludeUserID string) ([]repository.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []repository.Battle
	for _, b := range r.battles {
		if b.Status == debate.BattleWaiting && b.Player1ID != excludeUserID {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *MemoryRepository) RecordBattleSegment(_ context.Context, input repository.RecordBattleSegmentInput) (*repository.BattleSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[input.BattleID]
	if !ok || b.Status != debate.BattleInProgress ||
		b.CurrentTurn != input.ExpectedTurn || b.CurrentSegment != input.ExpectedSegment {
		return nil, repository.ErrConflict
	}
	for _, s := range r.battleSegments {
		if s.BattleID == input.BattleID && s.PlayerID == input.PlayerID && s.Kind == input.Kind {
			return nil, repository.ErrDuplicate
		}
	}
	r.nextBattleSeg++
	seg := repository.BattleSegment{
		ID:         r.nextBattleSeg,
		BattleID:   input.BattleID,
		PlayerID:   input.PlayerID,
		Kind:       input.Kind,
		Transcript: input.Transcript,
		Duration:   input.Duration,
		CreatedAt:  r.now(),
	}
	r.battleSegments = append(r.battleSegments, seg)
	b.CurrentTurn = input.NextTurn
	b.CurrentSegment = input.NextSegment
	r.battles[b.ID] = b
	return &seg, nil
}

func (r *MemoryRepository) ListBattleSegments(_ context.Context, battleID string) ([]repository.BattleSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []repository.BattleSegment
	for _, s := range r.battleSegments {
		if s.BattleID == battleID {
			list = append(list, s)
		}
	}
	return list, nil
}

func (r *MemoryRepository) CompleteBattle(_ context.Context, input repository.CompleteBattleInput) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[input.BattleID]
	if !ok || b.Status != debate.BattleInProgress || b.Judgment != nil {
		return false, nil
	}
	j := input.Judgment
	completed := input.CompletedAt
	b.Status = debate.BattleCompleted
	b.WinnerID = input.WinnerID
	b.Judgment = &j
	b.CompletedAt = &completed
	b.CurrentTurn = ""
	r.battles[b.ID] = b
	return true, nil
}
