package judge

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/debaide/internal/debate"
)

const topicPrompt = `Generate an engaging debate topic for practice. Return a JSON object with:
- title: A clear, specific debate resolution (e.g., "Social media does more harm than good")
- description: 2-3 sentence explanation of the topic's relevance
- difficulty: "easy", "medium", or "hard"
- category: one of "politics", "technology", "ethics", "environment", "education", "health", "economics"

Make it current, relevant, and suitable for practicing argumentation skills.`

func buildScoringPrompt(input SessionInput) string {
	parts := make([]string, 0, len(input.Segments))
	for _, seg := range input.Segments {
		parts = append(parts, fmt.Sprintf("**%s** (%gs):\n%s", strings.ToUpper(string(seg.Kind)), seg.Duration, seg.Transcript))
	}

	var b strings.Builder
	b.WriteString("You are an expert debate coach scoring a practice debate. Analyze the following debate performance.\n\n")
	fmt.Fprintf(&b, "**Topic:** %s\n**Stance:** %s\n\n", input.Topic, input.Stance)
	b.WriteString("**Debate Transcript:**\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString(`

Provide a structured evaluation in JSON format with:

1. scores (object): structure 0-5, logic 0-5, delivery 0-5, time_use 0-5, total 0-20 (sum of above)
2. feedback (object): strengths (2-3 items), improvements (2-3 items), summary (2-3 sentences)
3. highlights (array of 2-3 key moments): each with timestamp (float seconds), text, reason
4. drills (array of 3-4 specific practice exercises)

Be constructive, specific, and encouraging. Focus on actionable feedback.`)
	return b.String()
}

func writeSide(b *strings.Builder, side BattleSide) {
	fmt.Fprintf(b, "%s (%s):\n", side.Username, side.Stance)
	fmt.Fprintf(b, "Opening: %s\n", side.Transcript[debate.SegmentOpening])
	fmt.Fprintf(b, "Rebuttal: %s\n", side.Transcript[debate.SegmentRebuttal])
	fmt.Fprintf(b, "Closing: %s\n", side.Transcript[debate.SegmentClosing])
}

func buildJudgingPrompt(input BattleInput) string {
	var b strings.Builder
	b.WriteString("You are an expert debate judge evaluating a 1v1 debate.\n\n")
	fmt.Fprintf(&b, "Topic: %s\nDescription: %s\n\n", input.Topic, input.Description)
	writeSide(&b, input.Player1)
	b.WriteString("\n")
	writeSide(&b, input.Player2)
	b.WriteString(`
Evaluate both debaters on these criteria (0-10 points each):
1. Argument Strength - Quality and persuasiveness of arguments
2. Logic and Reasoning - Sound logic and valid reasoning
3. Evidence and Examples - Use of facts, data, and relevant examples
4. Rebuttal Quality - Effective counter-arguments and addressing opponent's points
5. Delivery and Clarity - Clear communication and structure

Provide your judgment in the following JSON format:
{
  "player1_scores": {"argument_strength": 0, "logic_reasoning": 0, "evidence": 0, "rebuttal": 0, "delivery": 0, "total": 0},
  "player2_scores": {"argument_strength": 0, "logic_reasoning": 0, "evidence": 0, "rebuttal": 0, "delivery": 0, "total": 0},
  "winner": "player1 or player2",
  "decision_summary": "2-3 sentences explaining the decision",
  "player1_strengths": ["..."],
  "player1_weaknesses": ["..."],
  "player2_strengths": ["..."],
  "player2_weaknesses": ["..."]
}

Return ONLY the JSON object, no additional text.`)
	return b.String()
}
