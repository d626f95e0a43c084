package debatedto

// PlayerScores is one side's scorecard in a battle judgment. Each criterion is 0-10.
type PlayerScores struct {
	ArgumentStrength float64 `json:"argument_strength"`
	LogicReasoning   float64 `json:"logic_reasoning"`
	Evidence         float64 `json:"evidence"`
	Rebuttal         float64 `json:"rebuttal"`
	Delivery         float64 `json:"delivery"`
	Total            float64 `json:"total"`
}

const (
	WinnerPlayer1 = "player1"
	WinnerPlayer2 = "player2"
)

type Judgment struct {
	Player1Scores     PlayerScores `json:"player1_scores"`
	Player2Scores     PlayerScores `json:"player2_scores"`
	Winner            string       `json:"winner"`
	DecisionSummary   string       `json:"decision_summary"`
	Player1Strengths  []string     `json:"player1_strengths"`
	Player1Weaknesses []string     `json:"player1_weaknesses"`
	Player2Strengths  []string     `json:"player2_strengths"`
	Player2Weaknesses []string     `json:"player2_weaknesses"`
}

type JudgeWinner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type JudgeResult struct {
	BattleID string      `json:"battle_id"`
	Winner   JudgeWinner `json:"winner"`
	Judgment Judgment    `json:"judgment"`
}
