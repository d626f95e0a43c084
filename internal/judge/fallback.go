package judge

import (
	"strings"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

func FallbackScore() debatedto.ScoreResult {
	return debatedto.ScoreResult{
		Scores: debatedto.ScoreBreakdown{Structure: 3, Logic: 3, Delivery: 3, TimeUse: 3, Total: 12},
		Feedback: debatedto.Feedback{
			Strengths:    []string{"You completed all segments", "Good effort"},
			Improvements: []string{"Practice more", "Work on clarity"},
			Summary:      "Keep practicing to improve your debate skills.",
		},
		Highlights: []debatedto.Highlight{},
		Drills: []string{
			"Practice outlining arguments in advance",
			"Record yourself and listen back",
			"Time your segments during practice",
		},
	}
}

func FallbackTopic() GeneratedTopic {
	return GeneratedTopic{
		Title:       "Artificial intelligence will improve quality of life more than it will harm it",
		Description: "This topic explores the balance between AI's benefits and risks as it becomes increasingly integrated into daily life.",
		Difficulty:  "medium",
		Category:    "technology",
	}
}

// FallbackJudgment scores both sides evenly and awards the battle to the side
// that spoke more words. Ties go to player1.
func FallbackJudgment(input BattleInput) debatedto.Judgment {
	even := debatedto.PlayerScores{ArgumentStrength: 5, LogicReasoning: 5, Evidence: 5, Rebuttal: 5, Delivery: 5, Total: 25}
	winner := debatedto.WinnerPlayer1
	if wordCount(input.Player2) > wordCount(input.Player1) {
		winner = debatedto.WinnerPlayer2
	}
	return debatedto.Judgment{
		Player1Scores:     even,
		Player2Scores:     even,
		Winner:            winner,
		DecisionSummary:   "Automatic judgment: both debaters were scored evenly and the more developed case won.",
		Player1Strengths:  []string{"Completed every segment"},
		Player1Weaknesses: []string{},
		Player2Strengths:  []string{"Completed every segment"},
		Player2Weaknesses: []string{},
	}
}

func wordCount(side BattleSide) int {
	n := 0
	for _, k := range debate.SegmentKinds {
		n += len(strings.Fields(side.Transcript[k]))
	}
	return n
}
