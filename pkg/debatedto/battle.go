package debatedto

import "time"

type TopicRef struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

type BattlePlayer struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Stance   string `json:"stance"`
}

type BattleCreated struct {
	BattleID string        `json:"battle_id"`
	Topic    TopicRef      `json:"topic"`
	Player1  BattlePlayer  `json:"player1"`
	Player2  *BattlePlayer `json:"player2,omitempty"`
	Status   string        `json:"status"`
}

type AvailableBattle struct {
	BattleID  string       `json:"battle_id"`
	Topic     TopicRef     `json:"topic"`
	Player1   BattlePlayer `json:"player1"`
	CreatedAt time.Time    `json:"created_at"`
}

type BattleStatusPlayer struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Stance   string          `json:"stance"`
	Segments map[string]bool `json:"segments"`
}

type BattleStatus struct {
	BattleID       string              `json:"battle_id"`
	Status         string              `json:"status"`
	CurrentTurn    *string             `json:"current_turn"`
	CurrentSegment string              `json:"current_segment"`
	Topic          TopicRef            `json:"topic"`
	Player1        BattleStatusPlayer  `json:"player1"`
	Player2        *BattleStatusPlayer `json:"player2"`
	IsYourTurn     bool                `json:"is_your_turn"`
	ReadyToJudge   bool                `json:"ready_to_judge"`
	WinnerID       *string             `json:"winner_id"`
	Judgment       *Judgment           `json:"judgment"`
}

type BattleSegment struct {
	Kind       string    `json:"kind"`
	Transcript string    `json:"transcript"`
	PlayerID   string    `json:"player_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type BattleSegmentSubmitted struct {
	SegmentID      int64   `json:"segment_id"`
	Kind           string  `json:"kind"`
	Transcript     string  `json:"transcript"`
	Duration       float64 `json:"duration"`
	CurrentTurn    *string `json:"current_turn"`
	CurrentSegment string  `json:"current_segment"`
}
