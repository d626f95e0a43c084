package battle

import (
	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/repository"
)

// Turn is the position of a battle derived from its recorded segments.
type Turn struct {
	Segment  debate.SegmentKind
	PlayerID string
	// Done is set once both players have submitted every segment. Segment then
	// stays at closing and PlayerID is empty.
	Done bool
}

// Submitted maps each player id to the kinds that player has recorded.
type Submitted map[string]map[debate.SegmentKind]bool

func Tally(segments []repository.BattleSegment) Submitted {
	out := make(Submitted)
	for _, s := range segments {
		if out[s.PlayerID] == nil {
			out[s.PlayerID] = make(map[debate.SegmentKind]bool)
		}
		out[s.PlayerID][s.Kind] = true
	}
	return out
}

// ComputeTurn finds the earliest kind not yet submitted by both players. The
// turn goes to whoever still owes it while the other has spoken; when neither
// has, player1 opens the round.
func ComputeTurn(player1, player2 string, submitted Submitted) Turn {
	for _, kind := range debate.SegmentKinds {
		p1 := submitted[player1][kind]
		p2 := player2 != "" && submitted[player2][kind]
		switch {
		case p1 && p2:
			continue
		case p1:
			return Turn{Segment: kind, PlayerID: player2}
		default:
			return Turn{Segment: kind, PlayerID: player1}
		}
	}
	return Turn{Segment: debate.SegmentClosing, Done: true}
}
