package debate

import (
	"math"
	"strings"
)

type SegmentKind string

const (
	SegmentOpening  SegmentKind = "opening"
	SegmentRebuttal SegmentKind = "rebuttal"
	SegmentClosing  SegmentKind = "closing"
)

// SegmentKinds lists the kinds in speaking order.
var SegmentKinds = []SegmentKind{SegmentOpening, SegmentRebuttal, SegmentClosing}

func ParseSegmentKind(s string) (SegmentKind, bool) {
	k := SegmentKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SegmentKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

type Stance string

const (
	StancePro Stance = "pro"
	StanceCon Stance = "con"
)

func ParseStance(s string) (Stance, bool) {
	switch Stance(strings.ToLower(strings.TrimSpace(s))) {
	case StancePro:
		return StancePro, true
	case StanceCon:
		return StanceCon, true
	default:
		return "", false
	}
}

func (s Stance) Opposite() Stance {
	if s == StancePro {
		return StanceCon
	}
	return StancePro
}

type BattleStatus string

const (
	BattleWaiting    BattleStatus = "waiting"
	BattleInProgress BattleStatus = "in_progress"
	BattleCompleted  BattleStatus = "completed"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

const speakingWordsPerMinute = 150

// EstimateSpeechDuration returns the seconds it takes to speak text at 150 words per minute.
func EstimateSpeechDuration(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / speakingWordsPerMinute * 60
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
