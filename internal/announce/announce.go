// Package announce publishes finished battle results to external channels.
package announce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Participant struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Stance   string  `json:"stance"`
	Score    float64 `json:"score"`
}

type BattleResult struct {
	BattleID    string      `json:"battle_id"`
	TopicTitle  string      `json:"topic_title"`
	Winner      Participant `json:"winner"`
	Loser       Participant `json:"loser"`
	Summary     string      `json:"summary"`
	CompletedAt time.Time   `json:"completed_at"`
}

type Announcer interface {
	AnnounceBattleResult(ctx context.Context, result BattleResult) error
}

// Multi fans a result out to every announcer and joins their errors.
type Multi []Announcer

func (m Multi) AnnounceBattleResult(ctx context.Context, result BattleResult) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.AnnounceBattleResult(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) AnnounceBattleResult(context.Context, BattleResult) error { return nil }

func FormatResultMessage(r BattleResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Battle finished: %s\n", r.TopicTitle)
	fmt.Fprintf(&b, "Winner: %s (%s) %g - %g %s (%s)", r.Winner.Username, r.Winner.Stance, r.Winner.Score, r.Loser.Score, r.Loser.Username, r.Loser.Stance)
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}
