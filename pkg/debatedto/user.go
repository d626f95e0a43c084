package debatedto

import "time"

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        AuthUser `json:"user"`
}

type Me struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type SkillScores struct {
	Structure float64 `json:"structure"`
	Logic     float64 `json:"logic"`
	Delivery  float64 `json:"delivery"`
	TimeUse   float64 `json:"time_use"`
}

type UserStats struct {
	UserID                    string      `json:"user_id"`
	Username                  string      `json:"username"`
	TotalPracticeSessions     int         `json:"total_practice_sessions"`
	CompletedPracticeSessions int         `json:"completed_practice_sessions"`
	AveragePracticeScore      float64     `json:"average_practice_score"`
	TotalBattles              int         `json:"total_battles"`
	BattlesWon                int         `json:"battles_won"`
	BattlesLost               int         `json:"battles_lost"`
	WinRate                   float64     `json:"win_rate"`
	CurrentWinStreak          int         `json:"current_win_streak"`
	BestWinStreak             int         `json:"best_win_streak"`
	SkillScores               SkillScores `json:"skill_scores"`
	TotalDebateTime           float64     `json:"total_debate_time"`
	LastActivity              *time.Time  `json:"last_activity"`
	FavoriteStance            *string     `json:"favorite_stance"`
	MemberSince               time.Time   `json:"member_since"`
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
