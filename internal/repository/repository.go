package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

// Lookups return (nil, nil) when the row does not exist.

var (
	ErrDuplicate = errors.New("repository: duplicate row")
	ErrConflict  = errors.New("repository: concurrent modification")
)

type CreateUserInput struct {
	ID             string
	Username       string
	Email          string
	HashedPassword string
}

type CreateTopicInput struct {
	Title       string
	Description string
	Difficulty  string
	Category    string
}

type CreateSessionInput struct {
	ID      string
	TopicID int64
	UserID  string
	Stance  debate.Stance
}

type InsertSegmentInput struct {
	SessionID  string
	Kind       debate.SegmentKind
	AudioURL   string
	Transcript string
	Duration   float64
}

type SaveScorecardInput struct {
	SessionID   string
	Result      debatedto.ScoreResult
	CompletedAt time.Time
}

type CreateBattleInput struct {
	ID            string
	TopicID       int64
	Player1ID     string
	Player1Stance debate.Stance
}

type JoinBattleInput struct {
	BattleID      string
	Player2ID     string
	Player2Stance debate.Stance
}

// RecordBattleSegmentInput inserts a segment and moves the turn in one
// transaction. The turn only moves when the battle still has ExpectedTurn and
// ExpectedSegment; otherwise ErrConflict is returned and nothing is written.
type RecordBattleSegmentInput struct {
	BattleID        string
	PlayerID        string
	Kind            debate.SegmentKind
	Transcript      string
	Duration        float64
	ExpectedTurn    string
	ExpectedSegment debate.SegmentKind
	NextTurn        string
	NextSegment     debate.SegmentKind
}

type CompleteBattleInput struct {
	BattleID    string
	WinnerID    string
	Judgment    debatedto.Judgment
	CompletedAt time.Time
}

type UserRepository interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

type StatsRepository interface {
	// GetStats creates an empty row when the user has none yet.
	GetStats(ctx context.Context, userID string) (*UserStats, error)
	// UpdateStats applies fn to the user's row under a row lock.
	UpdateStats(ctx context.Context, userID string, fn func(*UserStats)) error
}

type TopicRepository interface {
	ListTopics(ctx context.Context) ([]Topic, error)
	GetTopic(ctx context.Context, id int64) (*Topic, error)
	LatestTopicSince(ctx context.Context, since time.Time) (*Topic, error)
	CreateTopic(ctx context.Context, input CreateTopicInput) (*Topic, error)
	CountTopics(ctx context.Context) (int, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	InsertSegment(ctx context.Context, input InsertSegmentInput) (*Segment, error)
	ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]Segment, error)
	GetScorecard(ctx context.Context, sessionID string) (*Scorecard, error)
	// SaveScorecard stores the first scorecard for a session and marks it
	// completed. created is false when one already existed; the stored one is returned.
	SaveScorecard(ctx context.Context, input SaveScorecardInput) (card *Scorecard, created bool, err error)
}

type BattleRepository interface {
	// CreateBattle removes the creator's other waiting battles before inserting.
	CreateBattle(ctx context.Context, input CreateBattleInput) (*Battle, error)
	GetBattle(ctx context.Context, id string) (*Battle, error)
	// JoinBattle reports false when the battle is no longer waiting or already has a second player.
	JoinBattle(ctx context.Context, input JoinBattleInput) (bool, error)
	ListWaitingBattles(ctx context.Context, excludeUserID string) ([]Battle, error)
	RecordBattleSegment(ctx context.Context, input RecordBattleSegmentInput) (*BattleSegment, error)
	ListBattleSegments(ctx context.Context, battleID string) ([]BattleSegment, error)
	// CompleteBattle reports false when the battle is not in progress or already judged.
	CompleteBattle(ctx context.Context, input CompleteBattleInput) (bool, error)
}

type Repository interface {
	UserRepository
	StatsRepository
	TopicRepository
	SessionRepository
	BattleRepository
}
