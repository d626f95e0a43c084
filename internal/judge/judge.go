// Package judge scores practice sessions, judges battles and proposes daily
// topics through a JSON-producing text generator.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

var ErrInvalidJudgment = errors.New("judge: invalid judgment")

// Generator returns the raw text of a model response for prompt. The response
// is expected to be a JSON document, possibly wrapped in a code fence.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, temperature float64) (string, error)
}

type SessionSegment struct {
	Kind       debate.SegmentKind
	Transcript string
	Duration   float64
}

type SessionInput struct {
	Topic    string
	Stance   debate.Stance
	Segments []SessionSegment
}

type BattleSide struct {
	Username   string
	Stance     debate.Stance
	Transcript map[debate.SegmentKind]string
}

type BattleInput struct {
	Topic       string
	Description string
	Player1     BattleSide
	Player2     BattleSide
}

type GeneratedTopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Category    string `json:"category"`
}

type Judge interface {
	ScoreSession(ctx context.Context, input SessionInput) (debatedto.ScoreResult, error)
	JudgeBattle(ctx context.Context, input BattleInput) (debatedto.Judgment, error)
	GenerateTopic(ctx context.Context) (GeneratedTopic, error)
}

const (
	scoringTemperature = 0.7
	judgingTemperature = 0.7
	topicTemperature   = 0.9
)

// Service implements Judge. With a nil generator every call returns the
// offline fallback result.
type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// ScoreSession falls back to a neutral scorecard when the generator fails.
func (s *Service) ScoreSession(ctx context.Context, input SessionInput) (debatedto.ScoreResult, error) {
	if s.gen == nil {
		slog.Debug("judge: using fallback scoring")
		return FallbackScore(), nil
	}
	raw, err := s.gen.GenerateJSON(ctx, buildScoringPrompt(input), scoringTemperature)
	if err != nil {
		slog.Warn("judge: scoring failed, using fallback", "error", err)
		return FallbackScore(), nil
	}
	var result debatedto.ScoreResult
	if err := decodeJSON(raw, &result); err != nil {
		slog.Warn("judge: scoring response undecodable, using fallback", "error", err)
		return FallbackScore(), nil
	}
	normalizeScore(&result)
	return result, nil
}

// JudgeBattle returns an error when the generator fails; a battle is never
// completed with a made-up verdict while a model is configured.
func (s *Service) JudgeBattle(ctx context.Context, input BattleInput) (debatedto.Judgment, error) {
	if s.gen == nil {
		slog.Debug("judge: using fallback battle judgment")
		return FallbackJudgment(input), nil
	}
	raw, err := s.gen.GenerateJSON(ctx, buildJudgingPrompt(input), judgingTemperature)
	if err != nil {
		return debatedto.Judgment{}, fmt.Errorf("generate judgment: %w", err)
	}
	return ParseJudgment(raw)
}

func (s *Service) GenerateTopic(ctx context.Context) (GeneratedTopic, error) {
	if s.gen == nil {
		return FallbackTopic(), nil
	}
	raw, err := s.gen.GenerateJSON(ctx, topicPrompt, topicTemperature)
	if err != nil {
		slog.Warn("judge: topic generation failed, using fallback", "error", err)
		return FallbackTopic(), nil
	}
	var t GeneratedTopic
	if err := decodeJSON(raw, &t); err != nil || strings.TrimSpace(t.Title) == "" {
		slog.Warn("judge: topic response unusable, using fallback", "error", err)
		return FallbackTopic(), nil
	}
	if t.Difficulty == "" {
		t.Difficulty = "medium"
	}
	return t, nil
}

// ParseJudgment decodes a model response into a Judgment. The winner must be
// player1 or player2; totals are recomputed from the criteria.
func ParseJudgment(raw string) (debatedto.Judgment, error) {
	var j debatedto.Judgment
	if err := decodeJSON(raw, &j); err != nil {
		return debatedto.Judgment{}, fmt.Errorf("%w: %v", ErrInvalidJudgment, err)
	}
	j.Winner = strings.ToLower(strings.TrimSpace(j.Winner))
	if j.Winner != debatedto.WinnerPlayer1 && j.Winner != debatedto.WinnerPlayer2 {
		return debatedto.Judgment{}, fmt.Errorf("%w: winner %q", ErrInvalidJudgment, j.Winner)
	}
	clampPlayerScores(&j.Player1Scores)
	clampPlayerScores(&j.Player2Scores)
	return j, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeJSON(raw string, v any) error {
	return json.Unmarshal([]byte(StripCodeFence(raw)), v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampPlayerScores(p *debatedto.PlayerScores) {
	p.ArgumentStrength = clamp(p.ArgumentStrength, 0, 10)
	p.LogicReasoning = clamp(p.LogicReasoning, 0, 10)
	p.Evidence = clamp(p.Evidence, 0, 10)
	p.Rebuttal = clamp(p.Rebuttal, 0, 10)
	p.Delivery = clamp(p.Delivery, 0, 10)
	p.Total = p.ArgumentStrength + p.LogicReasoning + p.Evidence + p.Rebuttal + p.Delivery
}

func normalizeScore(r *debatedto.ScoreResult) {
	sc := &r.Scores
	sc.Structure = clamp(sc.Structure, 0, 5)
	sc.Logic = clamp(sc.Logic, 0, 5)
	sc.Delivery = clamp(sc.Delivery, 0, 5)
	sc.TimeUse = clamp(sc.TimeUse, 0, 5)
	sc.Total = sc.Structure + sc.Logic + sc.Delivery + sc.TimeUse
	if r.Feedback.Strengths == nil {
		r.Feedback.Strengths = []string{}
	}
	if r.Feedback.Improvements == nil {
		r.Feedback.Improvements = []string{}
	}
	if r.Highlights == nil {
		r.Highlights = []debatedto.Highlight{}
	}
	if r.Drills == nil {
		r.Drills = []string{}
	}
}
