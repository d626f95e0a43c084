package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/debaide/internal/announce"
	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	judgeLockPrefix    = "battle:judge:"
	announceTimeout    = 10 * time.Second
	defaultJudgeLockTT = 2 * time.Minute
)

type Service struct {
	repo      repository.Repository
	judge     judge.Judge
	locker    Locker
	announcer announce.Announcer
	lockTTL   time.Duration
	now       func() time.Time

	judging singleflight.Group
}

func NewService(repo repository.Repository, j judge.Judge, locker Locker, announcer announce.Announcer, lockTTL time.Duration) *Service {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if announcer == nil {
		announcer = announce.Nop{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultJudgeLockTT
	}
	return &Service{
		repo:      repo,
		judge:     j,
		locker:    locker,
		announcer: announcer,
		lockTTL:   lockTTL,
		now:       time.Now,
	}
}

func (s *Service) requireTopic(ctx context.Context, id int64) (*repository.Topic, error) {
	t, err := s.repo.GetTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	if t == nil {
		return nil, apperr.NotFound("Topic not found")
	}
	return t, nil
}

func (s *Service) requireBattle(ctx context.Context, id string) (*repository.Battle, error) {
	b, err := s.repo.GetBattle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get battle: %w", err)
	}
	if b == nil {
		return nil, apperr.NotFound("Battle not found")
	}
	return b, nil
}

func (s *Service) requireParticipant(ctx context.Context, userID, battleID string) (*repository.Battle, error) {
	b, err := s.requireBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(userID) {
		return nil, apperr.Forbidden("You are not a participant in this battle")
	}
	return b, nil
}

// username resolves a display name; a missing user yields "".
func (s *Service) username(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", id, err)
	}
	if u == nil {
		return "", nil
	}
	return u.Username, nil
}

func topicRef(t *repository.Topic) debatedto.TopicRef {
	return debatedto.TopicRef{ID: t.ID, Title: t.Title, Description: t.Description}
}

// Create opens a waiting battle. The creator's earlier waiting battles are discarded.
func (s *Service) Create(ctx context.Context, creator *repository.User, topicID int64, stance string) (debatedto.BattleCreated, error) {
	topic, err := s.requireTopic(ctx, topicID)
	if err != nil {
		return debatedto.BattleCreated{}, err
	}
	st, ok := debate.ParseStance(stance)
	if !ok {
		return debatedto.BattleCreated{}, apperr.BadRequest("Stance must be 'pro' or 'con'")
	}
	b, err := s.repo.CreateBattle(ctx, repository.CreateBattleInput{
		ID:            uuid.NewString(),
		TopicID:       topic.ID,
		Player1ID:     creator.ID,
		Player1Stance: st,
	})
	if err != nil {
		return debatedto.BattleCreated{}, fmt.Errorf("create battle: %w", err)
	}
	slog.Info("battle created", "battle_id", b.ID, "user_id", creator.ID, "topic_id", topic.ID, "stance", st)
	return debatedto.BattleCreated{
		BattleID: b.ID,
		Topic:    topicRef(topic),
		Player1:  debatedto.BattlePlayer{ID: creator.ID, Username: creator.Username, Stance: string(st)},
		Status:   string(b.Status),
	}, nil
}

// Join seats the caller as player2 with the stance opposite to player1.
func (s *Service) Join(ctx context.Context, joiner *repository.User, battleID string) (debatedto.BattleCreated, error) {
	b, err := s.requireBattle(ctx, battleID)
	if err != nil {
		return debatedto.BattleCreated{}, err
	}
	switch {
	case b.Status != debate.BattleWaiting:
		return debatedto.BattleCreated{}, apperr.BadRequest("Battle is not accepting players")
	case b.Player1ID == joiner.ID:
		return debatedto.BattleCreated{}, apperr.BadRequest("Cannot join your own battle")
	case b.Player2ID != "":
		return debatedto.BattleCreated{}, apperr.BadRequest("Battle is full")
	}

	stance := b.Player1Stance.Opposite()
	joined, err := s.repo.JoinBattle(ctx, repository.JoinBattleInput{BattleID: b.ID, Player2ID: joiner.ID, Player2Stance: stance})
	if err != nil {
		return debatedto.BattleCreated{}, fmt.Errorf("join battle: %w", err)
	}
	if !joined {
		// Lost the race against another joiner.
		return debatedto.BattleCreated{}, apperr.BadRequest("Battle is full")
	}

	topic, err := s.requireTopic(ctx, b.TopicID)
	if err != nil {
		return debatedto.BattleCreated{}, err
	}
	p1Name, err := s.username(ctx, b.Player1ID)
	if err != nil {
		return debatedto.BattleCreated{}, err
	}
	slog.Info("battle joined", "battle_id", b.ID, "user_id", joiner.ID)
	return debatedto.BattleCreated{
		BattleID: b.ID,
		Topic:    topicRef(topic),
		Player1:  debatedto.BattlePlayer{ID: b.Player1ID, Username: p1Name, Stance: string(b.Player1Stance)},
		Player2:  &debatedto.BattlePlayer{ID: joiner.ID, Username: joiner.Username, Stance: string(stance)},
		Status:   string(debate.BattleInProgress),
	}, nil
}

// Available lists waiting battles the caller could join.
func (s *Service) Available(ctx context.Context, userID string) ([]debatedto.AvailableBattle, error) {
	battles, err := s.repo.ListWaitingBattles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list waiting battles: %w", err)
	}
	out := make([]debatedto.AvailableBattle, 0, len(battles))
	for _, b := range battles {
		topic, err := s.repo.GetTopic(ctx, b.TopicID)
		if err != nil {
			return nil, fmt.Errorf("get topic: %w", err)
		}
		if topic == nil {
			continue
		}
		name, err := s.username(ctx, b.Player1ID)
		if err != nil {
			return nil, err
		}
		out = append(out, debatedto.AvailableBattle{
			BattleID:  b.ID,
			Topic:     debatedto.TopicRef{ID: topic.ID, Title: topic.Title, Difficulty: topic.Difficulty},
			Player1:   debatedto.BattlePlayer{Username: name, Stance: string(b.Player1Stance)},
			CreatedAt: b.CreatedAt,
		})
	}
	return out, nil
}

// turnRef renders an empty turn as null.
func turnRef(playerID string) *string {
	if playerID == "" {
		return nil
	}
	return &playerID
}

func submittedKinds(kinds map[debate.SegmentKind]bool) map[string]bool {
	out := make(map[string]bool, len(kinds))
	for k, v := range kinds {
		if v {
			out[string(k)] = true
		}
	}
	return out
}

// Status reports the battle as seen by one participant.
func (s *Service) Status(ctx context.Context, userID, battleID string) (debatedto.BattleStatus, error) {
	b, err := s.requireParticipant(ctx, userID, battleID)
	if err != nil {
		return debatedto.BattleStatus{}, err
	}
	segments, err := s.repo.ListBattleSegments(ctx, b.ID)
	if err != nil {
		return debatedto.BattleStatus{}, fmt.Errorf("list battle segments: %w", err)
	}
	topic, err := s.requireTopic(ctx, b.TopicID)
	if err != nil {
		return debatedto.BattleStatus{}, err
	}
	submitted := Tally(segments)

	p1Name, err := s.username(ctx, b.Player1ID)
	if err != nil {
		return debatedto.BattleStatus{}, err
	}
	out := debatedto.BattleStatus{
		BattleID:       b.ID,
		Status:         string(b.Status),
		CurrentTurn:    turnRef(b.CurrentTurn),
		CurrentSegment: string(b.CurrentSegment),
		Topic:          topicRef(topic),
		Player1: debatedto.BattleStatusPlayer{
			ID:       b.Player1ID,
			Username: p1Name,
			Stance:   string(b.Player1Stance),
			Segments: submittedKinds(submitted[b.Player1ID]),
		},
		IsYourTurn: b.CurrentTurn != "" && b.CurrentTurn == userID,
		Judgment:   b.Judgment,
	}
	if b.Player2ID != "" {
		p2Name, err := s.username(ctx, b.Player2ID)
		if err != nil {
			return debatedto.BattleStatus{}, err
		}
		out.Player2 = &debatedto.BattleStatusPlayer{
			ID:       b.Player2ID,
			Username: p2Name,
			Stance:   string(b.Player2Stance),
			Segments: submittedKinds(submitted[b.Player2ID]),
		}
		out.ReadyToJudge = b.Status == debate.BattleInProgress && ComputeTurn(b.Player1ID, b.Player2ID, submitted).Done
	}
	if b.WinnerID != "" {
		w := b.WinnerID
		out.WinnerID = &w
	}
	return out, nil
}

// Segments lists the battle's segments in submission order.
func (s *Service) Segments(ctx context.Context, userID, battleID string) ([]debatedto.BattleSegment, error) {
	b, err := s.requireParticipant(ctx, userID, battleID)
	if err != nil {
		return nil, err
	}
	segments, err := s.repo.ListBattleSegments(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list battle segments: %w", err)
	}
	out := make([]debatedto.BattleSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, debatedto.BattleSegment{
			Kind:       string(seg.Kind),
			Transcript: seg.Transcript,
			PlayerID:   seg.PlayerID,
			CreatedAt:  seg.CreatedAt,
		})
	}
	return out, nil
}

// SubmitSegment records the caller's statement for the current segment and
// hands the turn on. The next turn is derived from every recorded segment, so
// a player who already holds a kind is never given the turn for it.
func (s *Service) SubmitSegment(ctx context.Context, userID, battleID, kind, text string) (debatedto.BattleSegmentSubmitted, error) {
	b, err := s.requireBattle(ctx, battleID)
	if err != nil {
		return debatedto.BattleSegmentSubmitted{}, err
	}
	if b.Status != debate.BattleInProgress {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest("Battle is not in progress")
	}
	if !b.IsParticipant(userID) {
		return debatedto.BattleSegmentSubmitted{}, apperr.Forbidden("You are not a participant in this battle")
	}
	if b.CurrentTurn != userID {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest("It's not your turn")
	}
	k, ok := debate.ParseSegmentKind(kind)
	if !ok {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest("Invalid segment kind")
	}
	if k != b.CurrentSegment {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest(fmt.Sprintf("Current segment is %s, not %s", b.CurrentSegment, k))
	}
	if strings.TrimSpace(text) == "" {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest("Text cannot be empty")
	}

	segments, err := s.repo.ListBattleSegments(ctx, b.ID)
	if err != nil {
		return debatedto.BattleSegmentSubmitted{}, fmt.Errorf("list battle segments: %w", err)
	}
	submitted := Tally(segments)
	if submitted[userID][k] {
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest(fmt.Sprintf("You already submitted your %s", k))
	}
	if submitted[userID] == nil {
		submitted[userID] = make(map[debate.SegmentKind]bool)
	}
	submitted[userID][k] = true
	next := ComputeTurn(b.Player1ID, b.Player2ID, submitted)

	duration := debate.EstimateSpeechDuration(text)
	seg, err := s.repo.RecordBattleSegment(ctx, repository.RecordBattleSegmentInput{
		BattleID:        b.ID,
		PlayerID:        userID,
		Kind:            k,
		Transcript:      text,
		Duration:        duration,
		ExpectedTurn:    b.CurrentTurn,
		ExpectedSegment: b.CurrentSegment,
		NextTurn:        next.PlayerID,
		NextSegment:     next.Segment,
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return debatedto.BattleSegmentSubmitted{}, apperr.Conflict("Battle changed, refresh and try again")
	case errors.Is(err, repository.ErrDuplicate):
		return debatedto.BattleSegmentSubmitted{}, apperr.BadRequest(fmt.Sprintf("You already submitted your %s", k))
	case err != nil:
		return debatedto.BattleSegmentSubmitted{}, fmt.Errorf("record battle segment: %w", err)
	}
	slog.Info("battle segment submitted", "battle_id", b.ID, "user_id", userID, "kind", k,
		"next_turn", next.PlayerID, "next_segment", next.Segment, "ready_to_judge", next.Done)
	return debatedto.BattleSegmentSubmitted{
		SegmentID:      seg.ID,
		Kind:           string(k),
		Transcript:     text,
		Duration:       duration,
		CurrentTurn:    turnRef(next.PlayerID),
		CurrentSegment: string(next.Segment),
	}, nil
}
