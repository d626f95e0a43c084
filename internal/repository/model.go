package repository

import (
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

type User struct {
	ID             string
	Username       string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

type UserStats struct {
	UserID                    string
	TotalPracticeSessions     int
	CompletedPracticeSessions int
	AveragePracticeScore      float64
	TotalBattles              int
	BattlesWon                int
	BattlesLost               int
	CurrentWinStreak          int
	BestWinStreak             int
	AvgStructureScore         float64
	AvgLogicScore             float64
	AvgDeliveryScore          float64
	AvgTimeUseScore           float64
	TotalDebateTime           float64
	ProDebates                int
	ConDebates                int
	LastActivity              *time.Time
	UpdatedAt                 time.Time
}

type Topic struct {
	ID          int64
	Title       string
	Description string
	Difficulty  string
	Category    string
	CreatedAt   time.Time
}

type Session struct {
	ID          string
	TopicID     int64
	UserID      string
	Stance      debate.Stance
	Status      debate.SessionStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type Segment struct {
	ID         int64
	SessionID  string
	Kind       debate.SegmentKind
	AudioURL   string
	Transcript string
	Duration   float64
	CreatedAt  time.Time
}

type Scorecard struct {
	SessionID string
	Result    debatedto.ScoreResult
	CreatedAt time.Time
}

type Battle struct {
	ID             string
	TopicID        int64
	Player1ID      string
	Player1Stance  debate.Stance
	Player2ID      string
	Player2Stance  debate.Stance
	Status         debate.BattleStatus
	CurrentTurn    string
	CurrentSegment debate.SegmentKind
	WinnerID       string
	Judgment       *debatedto.Judgment
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (b *Battle) IsParticipant(userID string) bool {
	return userID != "" && (userID == b.Player1ID || userID == b.Player2ID)
}

// Opponent returns the other participant's id, or "" when userID is not player1 or player2.
func (b *Battle) Opponent(userID string) string {
	switch userID {
	case b.Player1ID:
		return b.Player2ID
	case b.Player2ID:
		return b.Player1ID
	default:
		return ""
	}
}

type BattleSegment struct {
	ID         int64
	BattleID   string
	PlayerID   string
	Kind       debate.SegmentKind
	Transcript string
	Duration   float64
	CreatedAt  time.Time
}
