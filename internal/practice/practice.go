package practice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/internal/stats"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/foxseedlab/debaide/internal/transcriber"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo        repository.Repository
	judge       judge.Judge
	transcriber transcriber.Transcriber
	audio       storage.AudioStore
	now         func() time.Time
	pickStance  func() debate.Stance

	scoring singleflight.Group
}

func NewService(repo repository.Repository, j judge.Judge, t transcriber.Transcriber, audio storage.AudioStore) *Service {
	return &Service{
		repo:        repo,
		judge:       j,
		transcriber: t,
		audio:       audio,
		now:         time.Now,
		pickStance:  randomStance,
	}
}

func randomStance() debate.Stance {
	if rand.IntN(2) == 0 {
		return debate.StancePro
	}
	return debate.StanceCon
}

func (s *Service) Start(ctx context.Context, userID string, topicID int64) (debatedto.SessionStartResponse, error) {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return debatedto.SessionStartResponse{}, fmt.Errorf("get topic: %w", err)
	}
	if topic == nil {
		return debatedto.SessionStartResponse{}, apperr.NotFound("Topic not found")
	}
	if userID != "" {
		u, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return debatedto.SessionStartResponse{}, fmt.Errorf("get user: %w", err)
		}
		if u == nil {
			return debatedto.SessionStartResponse{}, apperr.NotFound("User not found")
		}
	}

	session, err := s.repo.CreateSession(ctx, repository.CreateSessionInput{
		ID:      uuid.NewString(),
		TopicID: topic.ID,
		UserID:  userID,
		Stance:  s.pickStance(),
	})
	if err != nil {
		return debatedto.SessionStartResponse{}, fmt.Errorf("create session: %w", err)
	}
	slog.Info("practice session started", "session_id", session.ID, "topic_id", topic.ID, "stance", session.Stance)
	return debatedto.SessionStartResponse{
		SessionID:        session.ID,
		TopicTitle:       topic.Title,
		Stance:           string(session.Stance),
		TopicDescription: topic.Description,
	}, nil
}

func (s *Service) requireSession(ctx context.Context, sessionID string) (*repository.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, apperr.NotFound("Session not found")
	}
	return session, nil
}

func parseKind(kind string) (debate.SegmentKind, error) {
	k, ok := debate.ParseSegmentKind(kind)
	if !ok {
		return "", apperr.BadRequest("Invalid segment kind")
	}
	return k, nil
}

func segmentResponse(seg *repository.Segment) debatedto.SegmentUploadResponse {
	resp := debatedto.SegmentUploadResponse{SegmentID: seg.ID, Transcript: seg.Transcript, Duration: seg.Duration}
	if seg.AudioURL != "" {
		u := seg.AudioURL
		resp.AudioURL = &u
	}
	return resp
}

func (s *Service) UploadSegment(ctx context.Context, sessionID, kind, filename string, audio []byte) (debatedto.SegmentUploadResponse, error) {
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return debatedto.SegmentUploadResponse{}, err
	}
	k, err := parseKind(kind)
	if err != nil {
		return debatedto.SegmentUploadResponse{}, err
	}
	if len(audio) == 0 {
		return debatedto.SegmentUploadResponse{}, apperr.BadRequest("Audio file is empty")
	}

	url, err := s.audio.Save(ctx, sessionID, k, filename, audio)
	if err != nil {
		return debatedto.SegmentUploadResponse{}, apperr.Internal("Upload failed", err)
	}
	tr, err := s.transcriber.Transcribe(ctx, audio, "")
	if err != nil {
		return debatedto.SegmentUploadResponse{}, apperr.Internal("Upload failed", err)
	}
	duration := tr.Duration
	if duration <= 0 {
		duration = debate.EstimateSpeechDuration(tr.Text)
	}
	seg, err := s.repo.InsertSegment(ctx, repository.InsertSegmentInput{
		SessionID:  sessionID,
		Kind:       k,
		AudioURL:   url,
		Transcript: tr.Text,
		Duration:   duration,
	})
	if err != nil {
		return debatedto.SegmentUploadResponse{}, fmt.Errorf("insert segment: %w", err)
	}
	return segmentResponse(seg), nil
}

func (s *Service) SubmitText(ctx context.Context, sessionID, kind, text string) (debatedto.SegmentUploadResponse, error) {
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return debatedto.SegmentUploadResponse{}, err
	}
	k, err := parseKind(kind)
	if err != nil {
		return debatedto.SegmentUploadResponse{}, err
	}
	if strings.TrimSpace(text) == "" {
		return debatedto.SegmentUploadResponse{}, apperr.BadRequest("Text cannot be empty")
	}
	seg, err := s.repo.InsertSegment(ctx, repository.InsertSegmentInput{
		SessionID:  sessionID,
		Kind:       k,
		Transcript: text,
		Duration:   debate.EstimateSpeechDuration(text),
	})
	if err != nil {
		return debatedto.SegmentUploadResponse{}, fmt.Errorf("insert segment: %w", err)
	}
	return segmentResponse(seg), nil
}

// Score computes the scorecard once per session. Later calls return the stored one.
func (s *Service) Score(ctx context.Context, sessionID string) (debatedto.ScoreResponse, error) {
	v, err, _ := s.scoring.Do(sessionID, func() (any, error) {
		return s.score(context.WithoutCancel(ctx), sessionID)
	})
	if err != nil {
		return debatedto.ScoreResponse{}, err
	}
	return debatedto.ScoreResponse{SessionID: sessionID, ScoreResult: v.(debatedto.ScoreResult)}, nil
}

func (s *Service) score(ctx context.Context, sessionID string) (debatedto.ScoreResult, error) {
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return debatedto.ScoreResult{}, err
	}
	segments, err := s.repo.ListSegmentsBySessionID(ctx, sessionID)
	if err != nil {
		return debatedto.ScoreResult{}, fmt.Errorf("list segments: %w", err)
	}
	if len(segments) == 0 {
		return debatedto.ScoreResult{}, apperr.BadRequest("No segments found for session")
	}
	existing, err := s.repo.GetScorecard(ctx, sessionID)
	if err != nil {
		return debatedto.ScoreResult{}, fmt.Errorf("get scorecard: %w", err)
	}
	if existing != nil {
		return existing.Result, nil
	}

	topicTitle := ""
	if topic, err := s.repo.GetTopic(ctx, session.TopicID); err != nil {
		return debatedto.ScoreResult{}, fmt.Errorf("get topic: %w", err)
	} else if topic != nil {
		topicTitle = topic.Title
	}

	input := judge.SessionInput{Topic: topicTitle, Stance: session.Stance}
	var speech float64
	for _, seg := range segments {
		input.Segments = append(input.Segments, judge.SessionSegment{Kind: seg.Kind, Transcript: seg.Transcript, Duration: seg.Duration})
		speech += seg.Duration
	}
	result, err := s.judge.ScoreSession(ctx, input)
	if err != nil {
		return debatedto.ScoreResult{}, apperr.Internal("Scoring failed", err)
	}

	now := s.now()
	card, created, err := s.repo.SaveScorecard(ctx, repository.SaveScorecardInput{SessionID: sessionID, Result: result, CompletedAt: now})
	if err != nil {
		return debatedto.ScoreResult{}, fmt.Errorf("save scorecard: %w", err)
	}
	if created && session.UserID != "" {
		err := s.repo.UpdateStats(ctx, session.UserID, func(st *repository.UserStats) {
			stats.ApplyPractice(st, stats.PracticeOutcome{Scores: card.Result.Scores, Stance: session.Stance, SpeechTotal: speech, At: now})
		})
		if err != nil {
			slog.Error("failed to update practice stats", "session_id", sessionID, "user_id", session.UserID, "error", err)
		}
	}
	slog.Info("practice session scored", "session_id", sessionID, "total", card.Result.Scores.Total, "created", created)
	return card.Result, nil
}

func (s *Service) History(ctx context.Context, sessionID string) (debatedto.SessionHistory, error) {
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return debatedto.SessionHistory{}, err
	}
	segments, err := s.repo.ListSegmentsBySessionID(ctx, sessionID)
	if err != nil {
		return debatedto.SessionHistory{}, fmt.Errorf("list segments: %w", err)
	}
	card, err := s.repo.GetScorecard(ctx, sessionID)
	if err != nil {
		return debatedto.SessionHistory{}, fmt.Errorf("get scorecard: %w", err)
	}

	out := debatedto.SessionHistory{
		Session: debatedto.HistorySession{
			ID:        session.ID,
			TopicID:   session.TopicID,
			Stance:    string(session.Stance),
			Status:    string(session.Status),
			CreatedAt: session.CreatedAt,
		},
		Segments: make([]debatedto.HistorySegment, 0, len(segments)),
	}
	for _, seg := range segments {
		resp := segmentResponse(&seg)
		out.Segments = append(out.Segments, debatedto.HistorySegment{
			ID:         seg.ID,
			Kind:       string(seg.Kind),
			Transcript: seg.Transcript,
			AudioURL:   resp.AudioURL,
			Duration:   seg.Duration,
		})
	}
	if card != nil {
		r := card.Result
		out.Scorecard = &r
	}
	return out, nil
}

// Transcribe runs speech recognition without storing anything.
func (s *Service) Transcribe(ctx context.Context, audio []byte, language string) (debatedto.TranscribeResponse, error) {
	if len(audio) == 0 {
		return debatedto.TranscribeResponse{}, apperr.BadRequest("Audio file is empty")
	}
	tr, err := s.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		return debatedto.TranscribeResponse{}, apperr.Internal("Transcription failed", err)
	}
	return debatedto.TranscribeResponse{Text: tr.Text}, nil
}
