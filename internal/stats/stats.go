// Package stats applies practice and battle outcomes to a user's running totals.
package stats

import (
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

type PracticeOutcome struct {
	Scores      debatedto.ScoreBreakdown
	Stance      debate.Stance
	SpeechTotal float64
	At          time.Time
}

type BattleOutcome struct {
	Won         bool
	Stance      debate.Stance
	SpeechTotal float64
	At          time.Time
}

func runningAverage(avg float64, n int, v float64) float64 {
	return (avg*float64(n-1) + v) / float64(n)
}

func countStance(s *repository.UserStats, stance debate.Stance) {
	switch stance {
	case debate.StancePro:
		s.ProDebates++
	case debate.StanceCon:
		s.ConDebates++
	}
}

func ApplyPractice(s *repository.UserStats, o PracticeOutcome) {
	s.TotalPracticeSessions++
	s.CompletedPracticeSessions++
	n := s.CompletedPracticeSessions
	s.AvgStructureScore = runningAverage(s.AvgStructureScore, n, o.Scores.Structure)
	s.AvgLogicScore = runningAverage(s.AvgLogicScore, n, o.Scores.Logic)
	s.AvgDeliveryScore = runningAverage(s.AvgDeliveryScore, n, o.Scores.Delivery)
	s.AvgTimeUseScore = runningAverage(s.AvgTimeUseScore, n, o.Scores.TimeUse)
	s.AveragePracticeScore = runningAverage(s.AveragePracticeScore, n, o.Scores.Total)
	s.TotalDebateTime += o.SpeechTotal
	countStance(s, o.Stance)
	at := o.At
	s.LastActivity = &at
}

func ApplyBattle(s *repository.UserStats, o BattleOutcome) {
	s.TotalBattles++
	if o.Won {
		s.BattlesWon++
		s.CurrentWinStreak++
		s.BestWinStreak = max(s.BestWinStreak, s.CurrentWinStreak)
	} else {
		s.BattlesLost++
		s.CurrentWinStreak = 0
	}
	s.TotalDebateTime += o.SpeechTotal
	countStance(s, o.Stance)
	at := o.At
	s.LastActivity = &at
}

// FavoriteStance is nil until one stance has been argued more often than the other.
func FavoriteStance(s repository.UserStats) *string {
	var fav debate.Stance
	switch {
	case s.ProDebates > s.ConDebates:
		fav = debate.StancePro
	case s.ConDebates > s.ProDebates:
		fav = debate.StanceCon
	default:
		return nil
	}
	v := string(fav)
	return &v
}

func ToDTO(s repository.UserStats, u repository.User) debatedto.UserStats {
	winRate := 0.0
	if s.TotalBattles > 0 {
		winRate = float64(s.BattlesWon) / float64(s.TotalBattles) * 100
	}
	return debatedto.UserStats{
		UserID:                    s.UserID,
		Username:                  u.Username,
		TotalPracticeSessions:     s.TotalPracticeSessions,
		CompletedPracticeSessions: s.CompletedPracticeSessions,
		AveragePracticeScore:      debate.Round(s.AveragePracticeScore, 2),
		TotalBattles:              s.TotalBattles,
		BattlesWon:                s.BattlesWon,
		BattlesLost:               s.BattlesLost,
		WinRate:                   debate.Round(winRate, 1),
		CurrentWinStreak:          s.CurrentWinStreak,
		BestWinStreak:             s.BestWinStreak,
		SkillScores: debatedto.SkillScores{
			Structure: debate.Round(s.AvgStructureScore, 2),
			Logic:     debate.Round(s.AvgLogicScore, 2),
			Delivery:  debate.Round(s.AvgDeliveryScore, 2),
			TimeUse:   debate.Round(s.AvgTimeUseScore, 2),
		},
		TotalDebateTime: debate.Round(s.TotalDebateTime/60, 1),
		LastActivity:    s.LastActivity,
		FavoriteStance:  FavoriteStance(s),
		MemberSince:     u.CreatedAt,
	}
}
