package debatedto

import "time"

type Topic struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Category    string `json:"category"`
}

type SessionStartRequest struct {
	TopicID int64  `json:"topic_id"`
	UserID  string `json:"user_id,omitempty"`
}

type SessionStartResponse struct {
	SessionID        string `json:"session_id"`
	TopicTitle       string `json:"topic_title"`
	Stance           string `json:"stance"`
	TopicDescription string `json:"topic_description"`
}

type SegmentUploadResponse struct {
	SegmentID  int64   `json:"segment_id"`
	Transcript string  `json:"transcript"`
	AudioURL   *string `json:"audio_url"`
	Duration   float64 `json:"duration"`
}

// ScoreBreakdown criteria are 0-5 each, total 0-20.
type ScoreBreakdown struct {
	Structure float64 `json:"structure"`
	Logic     float64 `json:"logic"`
	Delivery  float64 `json:"delivery"`
	TimeUse   float64 `json:"time_use"`
	Total     float64 `json:"total"`
}

type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
}

type Highlight struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
	Reason    string  `json:"reason"`
}

type ScoreResult struct {
	Scores     ScoreBreakdown `json:"scores"`
	Feedback   Feedback       `json:"feedback"`
	Highlights []Highlight    `json:"highlights"`
	Drills     []string       `json:"drills"`
}

type ScoreResponse struct {
	SessionID string `json:"session_id"`
	ScoreResult
}

type HistorySession struct {
	ID        string    `json:"id"`
	TopicID   int64     `json:"topic_id"`
	Stance    string    `json:"stance"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type HistorySegment struct {
	ID         int64   `json:"id"`
	Kind       string  `json:"kind"`
	Transcript string  `json:"transcript"`
	AudioURL   *string `json:"audio_url"`
	Duration   float64 `json:"duration"`
}

type SessionHistory struct {
	Session   HistorySession   `json:"session"`
	Segments  []HistorySegment `json:"segments"`
	Scorecard *ScoreResult     `json:"scorecard"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}
