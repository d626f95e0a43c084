package battle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/debaide/internal/announce"
	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/internal/stats"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

// Judge asks the AI judge for a verdict once both players have spoken every
// segment. A battle is judged exactly once: concurrent callers in this process
// share one computation, other processes are kept out by the lock, and the
// completion write only succeeds while no judgment is stored. Calls after
// completion return the stored judgment.
func (s *Service) Judge(ctx context.Context, userID, battleID string) (debatedto.JudgeResult, error) {
	b, err := s.requireParticipant(ctx, userID, battleID)
	if err != nil {
		return debatedto.JudgeResult{}, err
	}
	if stored, ok, err := s.storedResult(ctx, b); err != nil || ok {
		return stored, err
	}

	v, err, shared := s.judging.Do(b.ID, func() (any, error) {
		return s.judgeLocked(context.WithoutCancel(ctx), b.ID)
	})
	if err != nil {
		return debatedto.JudgeResult{}, err
	}
	if shared {
		slog.Debug("battle judgment shared with concurrent caller", "battle_id", b.ID, "user_id", userID)
	}
	return v.(debatedto.JudgeResult), nil
}

func (s *Service) judgeLocked(ctx context.Context, battleID string) (debatedto.JudgeResult, error) {
	unlock, acquired, err := s.locker.TryLock(ctx, judgeLockPrefix+battleID, s.lockTTL)
	if err != nil {
		return debatedto.JudgeResult{}, apperr.Internal("Judging failed", fmt.Errorf("acquire judge lock: %w", err))
	}
	if !acquired {
		b, err := s.requireBattle(ctx, battleID)
		if err != nil {
			return debatedto.JudgeResult{}, err
		}
		if stored, ok, err := s.storedResult(ctx, b); err != nil || ok {
			return stored, err
		}
		return debatedto.JudgeResult{}, apperr.Conflict("Judgment is already in progress")
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			slog.Warn("failed to release judge lock", "battle_id", battleID, "error", err)
		}
	}()

	// Re-read under the lock; another process may have finished meanwhile.
	b, err := s.requireBattle(ctx, battleID)
	if err != nil {
		return debatedto.JudgeResult{}, err
	}
	if stored, ok, err := s.storedResult(ctx, b); err != nil || ok {
		return stored, err
	}
	if b.Status != debate.BattleInProgress {
		return debatedto.JudgeResult{}, apperr.BadRequest("Battle is not in progress")
	}
	return s.decide(ctx, b)
}

func (s *Service) decide(ctx context.Context, b *repository.Battle) (debatedto.JudgeResult, error) {
	segments, err := s.repo.ListBattleSegments(ctx, b.ID)
	if err != nil {
		return debatedto.JudgeResult{}, fmt.Errorf("list battle segments: %w", err)
	}
	transcripts := map[string]map[debate.SegmentKind]string{b.Player1ID: {}, b.Player2ID: {}}
	speech := map[string]float64{}
	for _, seg := range segments {
		if t, ok := transcripts[seg.PlayerID]; ok {
			t[seg.Kind] = seg.Transcript
			speech[seg.PlayerID] += seg.Duration
		}
	}
	for i, id := range []string{b.Player1ID, b.Player2ID} {
		if len(transcripts[id]) != len(debate.SegmentKinds) {
			return debatedto.JudgeResult{}, apperr.BadRequest(fmt.Sprintf("Player %d has not submitted all segments", i+1))
		}
	}

	topic, err := s.requireTopic(ctx, b.TopicID)
	if err != nil {
		return debatedto.JudgeResult{}, err
	}
	p1Name, err := s.username(ctx, b.Player1ID)
	if err != nil {
		return debatedto.JudgeResult{}, err
	}
	p2Name, err := s.username(ctx, b.Player2ID)
	if err != nil {
		return debatedto.JudgeResult{}, err
	}

	slog.Info("judging battle", "battle_id", b.ID)
	verdict, err := s.judge.JudgeBattle(ctx, judge.BattleInput{
		Topic:       topic.Title,
		Description: topic.Description,
		Player1:     judge.BattleSide{Username: p1Name, Stance: b.Player1Stance, Transcript: transcripts[b.Player1ID]},
		Player2:     judge.BattleSide{Username: p2Name, Stance: b.Player2Stance, Transcript: transcripts[b.Player2ID]},
	})
	if err != nil {
		return debatedto.JudgeResult{}, apperr.Internal("Judging failed", err)
	}

	winnerID, winnerName := b.Player1ID, p1Name
	if verdict.Winner == debatedto.WinnerPlayer2 {
		winnerID, winnerName = b.Player2ID, p2Name
	}
	now := s.now()
	stored, err := s.repo.CompleteBattle(ctx, repository.CompleteBattleInput{
		BattleID:    b.ID,
		WinnerID:    winnerID,
		Judgment:    verdict,
		CompletedAt: now,
	})
	if err != nil {
		return debatedto.JudgeResult{}, fmt.Errorf("complete battle: %w", err)
	}
	if !stored {
		// Someone else completed it despite the lock, e.g. after a lease expired.
		slog.Warn("battle completed concurrently, discarding verdict", "battle_id", b.ID)
		fresh, err := s.requireBattle(ctx, b.ID)
		if err != nil {
			return debatedto.JudgeResult{}, err
		}
		if res, ok, err := s.storedResult(ctx, fresh); err != nil || ok {
			return res, err
		}
		return debatedto.JudgeResult{}, apperr.Conflict("Battle is no longer in progress")
	}
	slog.Info("battle judged", "battle_id", b.ID, "winner_id", winnerID,
		"player1_total", verdict.Player1Scores.Total, "player2_total", verdict.Player2Scores.Total)

	s.recordOutcome(ctx, b, winnerID, speech, now)
	s.announce(ctx, b, topic, verdict, p1Name, p2Name, now)

	return debatedto.JudgeResult{
		BattleID: b.ID,
		Winner:   debatedto.JudgeWinner{ID: winnerID, Username: winnerName},
		Judgment: verdict,
	}, nil
}

// storedResult reports the stored verdict of a completed battle.
func (s *Service) storedResult(ctx context.Context, b *repository.Battle) (debatedto.JudgeResult, bool, error) {
	if b.Status != debate.BattleCompleted || b.Judgment == nil {
		return debatedto.JudgeResult{}, false, nil
	}
	name, err := s.username(ctx, b.WinnerID)
	if err != nil {
		return debatedto.JudgeResult{}, false, err
	}
	return debatedto.JudgeResult{
		BattleID: b.ID,
		Winner:   debatedto.JudgeWinner{ID: b.WinnerID, Username: name},
		Judgment: *b.Judgment,
	}, true, nil
}

func (s *Service) recordOutcome(ctx context.Context, b *repository.Battle, winnerID string, speech map[string]float64, at time.Time) {
	players := []struct {
		id     string
		stance debate.Stance
	}{
		{b.Player1ID, b.Player1Stance},
		{b.Player2ID, b.Player2Stance},
	}
	for _, p := range players {
		outcome := stats.BattleOutcome{Won: p.id == winnerID, Stance: p.stance, SpeechTotal: speech[p.id], At: at}
		err := s.repo.UpdateStats(ctx, p.id, func(st *repository.UserStats) {
			stats.ApplyBattle(st, outcome)
		})
		if err != nil {
			slog.Error("failed to update battle stats", "battle_id", b.ID, "user_id", p.id, "error", err)
		}
	}
}

func (s *Service) announce(ctx context.Context, b *repository.Battle, topic *repository.Topic, verdict debatedto.Judgment, p1Name, p2Name string, at time.Time) {
	p1 := announce.Participant{ID: b.Player1ID, Username: p1Name, Stance: string(b.Player1Stance), Score: verdict.Player1Scores.Total}
	p2 := announce.Participant{ID: b.Player2ID, Username: p2Name, Stance: string(b.Player2Stance), Score: verdict.Player2Scores.Total}
	winner, loser := p1, p2
	if verdict.Winner == debatedto.WinnerPlayer2 {
		winner, loser = p2, p1
	}

	ctx, cancel := context.WithTimeout(ctx, announceTimeout)
	defer cancel()
	err := s.announcer.AnnounceBattleResult(ctx, announce.BattleResult{
		BattleID:    b.ID,
		TopicTitle:  topic.Title,
		Winner:      winner,
		Loser:       loser,
		Summary:     verdict.DecisionSummary,
		CompletedAt: at,
	})
	if err != nil {
		slog.Warn("failed to announce battle result", "battle_id", b.ID, "error", err)
	}
}
