package battle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	repositoryimpl "github.com/foxseedlab/debaide/external/repository"
	"github.com/foxseedlab/debaide/internal/announce"
	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

type countingJudge struct {
	judge.Judge
	calls   atomic.Int32
	winner  string
	err     error
	release chan struct{}
}

func (j *countingJudge) JudgeBattle(_ context.Context, in judge.BattleInput) (debatedto.Judgment, error) {
	j.calls.Add(1)
	if j.release != nil {
		<-j.release
	}
	if j.err != nil {
		return debatedto.Judgment{}, j.err
	}
	v := judge.FallbackJudgment(in)
	if j.winner != "" {
		v.Winner = j.winner
	}
	v.Player1Scores.Total = 30
	v.Player2Scores.Total = 20
	return v, nil
}

type recordingAnnouncer struct {
	mu  sync.Mutex
	got []announce.BattleResult
}

func (r *recordingAnnouncer) AnnounceBattleResult(_ context.Context, result announce.BattleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, result)
	return errors.New("channel unavailable")
}

type fixture struct {
	svc       *Service
	repo      *repositoryimpl.MemoryRepository
	judge     *countingJudge
	announcer *recordingAnnouncer
	topic     *repository.Topic
	alice     *repository.User
	bob       *repository.User
	carol     *repository.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo := repositoryimpl.NewMemoryRepository()
	topic, err := repo.CreateTopic(ctx, repository.CreateTopicInput{Title: "Cities should ban cars", Description: "Urban policy", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("failed to create topic: %v", err)
	}
	users := make([]*repository.User, 0, 3)
	for _, name := range []string{"alice", "bob", "carol"} {
		u, err := repo.CreateUser(ctx, repository.CreateUserInput{ID: name + "-id", Username: name, Email: name + "@example.com"})
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		users = append(users, u)
	}
	j := &countingJudge{}
	a := &recordingAnnouncer{}
	return fixture{
		svc:       NewService(repo, j, nil, a, time.Minute),
		repo:      repo,
		judge:     j,
		announcer: a,
		topic:     topic,
		alice:     users[0],
		bob:       users[1],
		carol:     users[2],
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	return ae.Status
}

// startBattle creates a battle as alice (pro) and joins it as bob.
func (f fixture) startBattle(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.alice, f.topic.ID, "pro")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Join(ctx, f.bob, created.BattleID); err != nil {
		t.Fatalf("join: %v", err)
	}
	return created.BattleID
}

// playAll submits every segment in turn order.
func (f fixture) playAll(t *testing.T, battleID string) {
	t.Helper()
	ctx := context.Background()
	for _, kind := range []string{"opening", "rebuttal", "closing"} {
		for _, u := range []*repository.User{f.alice, f.bob} {
			if _, err := f.svc.SubmitSegment(ctx, u.ID, battleID, kind, u.Username+" argues the "+kind); err != nil {
				t.Fatalf("submit %s %s: %v", u.Username, kind, err)
			}
		}
	}
}

func turnOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.alice, 999, "pro"); statusOf(t, err) != http.StatusNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.alice, f.topic.ID, "maybe"); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := f.svc.Create(ctx, f.alice, f.topic.ID, "con")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != "waiting" || first.Player1.Stance != "con" || first.Player2 != nil || first.Topic.Title != "Cities should ban cars" {
		t.Fatalf("unexpected battle: %+v", first)
	}

	second, _ := f.svc.Create(ctx, f.alice, f.topic.ID, "pro")
	if b, _ := f.repo.GetBattle(ctx, first.BattleID); b != nil {
		t.Fatal("expected the earlier waiting battle to be discarded")
	}
	b, _ := f.repo.GetBattle(ctx, second.BattleID)
	if b.CurrentTurn != f.alice.ID || b.CurrentSegment != "opening" {
		t.Fatalf("unexpected initial turn: %+v", b)
	}
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, f.alice, f.topic.ID, "pro")

	if _, err := f.svc.Join(ctx, f.bob, "missing"); statusOf(t, err) != http.StatusNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Join(ctx, f.alice, created.BattleID); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}

	joined, err := f.svc.Join(ctx, f.bob, created.BattleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joined.Status != "in_progress" || joined.Player2 == nil || joined.Player2.Stance != "con" || joined.Player1.Username != "alice" {
		t.Fatalf("unexpected battle: %+v", joined)
	}

	if _, err := f.svc.Join(ctx, f.carol, created.BattleID); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJoin_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, f.alice, f.topic.ID, "pro")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for _, u := range []*repository.User{f.bob, f.carol} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Join(ctx, u, created.BattleID); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one join, got %d", wins.Load())
	}
}

func TestAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, f.alice, f.topic.ID, "pro")

	mine, err := f.svc.Available(ctx, f.alice.ID)
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected own battle hidden: %+v %v", mine, err)
	}
	list, err := f.svc.Available(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].BattleID != created.BattleID || list[0].Player1.Username != "alice" || list[0].Topic.Difficulty != "hard" {
		t.Fatalf("unexpected list: %+v", list)
	}

	_, _ = f.svc.Join(ctx, f.bob, created.BattleID)
	list, _ = f.svc.Available(ctx, f.carol.ID)
	if len(list) != 0 {
		t.Fatalf("expected joined battle to disappear: %+v", list)
	}
}

func TestSubmitSegment_TurnOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.startBattle(t)

	if _, err := f.svc.SubmitSegment(ctx, f.bob.ID, id, "opening", "too early"); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected not-your-turn, got %v", err)
	}
	if _, err := f.svc.SubmitSegment(ctx, f.carol.ID, id, "opening", "intruder"); statusOf(t, err) != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.svc.SubmitSegment(ctx, f.alice.ID, id, "rebuttal", "skip ahead"); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected wrong segment, got %v", err)
	}
	if _, err := f.svc.SubmitSegment(ctx, f.alice.ID, id, "opening", "  "); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected empty text rejection, got %v", err)
	}

	resp, err := f.svc.SubmitSegment(ctx, f.alice.ID, id, "opening", "one two three four five")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turnOf(resp.CurrentTurn) != f.bob.ID || resp.CurrentSegment != "opening" || resp.Duration != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, err := f.svc.SubmitSegment(ctx, f.alice.ID, id, "opening", "again"); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected not-your-turn on resubmission, got %v", err)
	}

	resp, err = f.svc.SubmitSegment(ctx, f.bob.ID, id, "opening", "reply")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turnOf(resp.CurrentTurn) != f.alice.ID || resp.CurrentSegment != "rebuttal" {
		t.Fatalf("expected player1 to start rebuttal: %+v", resp)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.startBattle(t)
	_, _ = f.svc.SubmitSegment(ctx, f.alice.ID, id, "opening", "hello")

	if _, err := f.svc.Status(ctx, f.carol.ID, id); statusOf(t, err) != http.StatusForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
	st, err := f.svc.Status(ctx, f.bob.ID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.IsYourTurn || turnOf(st.CurrentTurn) != f.bob.ID || st.Status != "in_progress" || st.ReadyToJudge {
		t.Fatalf("unexpected status: %+v", st)
	}
	if !st.Player1.Segments["opening"] || st.Player2 == nil || len(st.Player2.Segments) != 0 || st.Player2.Username != "bob" {
		t.Fatalf("unexpected players: %+v %+v", st.Player1, st.Player2)
	}
	if st.WinnerID != nil || st.Judgment != nil {
		t.Fatalf("expected no result yet: %+v", st)
	}

	segs, err := f.svc.Segments(ctx, f.alice.ID, id)
	if err != nil || len(segs) != 1 || segs[0].PlayerID != f.alice.ID || segs[0].Kind != "opening" {
		t.Fatalf("unexpected segments: %+v %v", segs, err)
	}
}

func TestJudge_RequiresAllSegments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.startBattle(t)
	_, _ = f.svc.SubmitSegment(ctx, f.alice.ID, id, "opening", "hello")

	if _, err := f.svc.Judge(ctx, f.alice.ID, id); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Judge(ctx, f.carol.ID, id); statusOf(t, err) != http.StatusForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.judge.calls.Load() != 0 {
		t.Fatal("judge must not be called before every segment exists")
	}
}

func TestJudge_OnceAndIdempotent(t *testing.T) {
	f := newFixture(t)
	f.judge.winner = debatedto.WinnerPlayer2
	ctx := context.Background()
	id := f.startBattle(t)
	f.playAll(t, id)

	st, _ := f.svc.Status(ctx, f.alice.ID, id)
	if !st.ReadyToJudge || st.CurrentTurn != nil || st.IsYourTurn {
		t.Fatalf("expected ready to judge: %+v", st)
	}

	res, err := f.svc.Judge(ctx, f.alice.ID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Winner.ID != f.bob.ID || res.Winner.Username != "bob" || res.Judgment.Winner != "player2" {
		t.Fatalf("unexpected result: %+v", res)
	}

	again, err := f.svc.Judge(ctx, f.bob.ID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Winner.ID != f.bob.ID || f.judge.calls.Load() != 1 {
		t.Fatalf("expected stored judgment, calls=%d", f.judge.calls.Load())
	}

	st, _ = f.svc.Status(ctx, f.alice.ID, id)
	if st.Status != "completed" || st.Judgment == nil || st.WinnerID == nil || *st.WinnerID != f.bob.ID {
		t.Fatalf("unexpected completed status: %+v", st)
	}
	if _, err := f.svc.SubmitSegment(ctx, f.alice.ID, id, "closing", "late"); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected closed battle, got %v", err)
	}

	aliceStats, _ := f.repo.GetStats(ctx, f.alice.ID)
	bobStats, _ := f.repo.GetStats(ctx, f.bob.ID)
	if aliceStats.BattlesLost != 1 || aliceStats.ProDebates != 1 || bobStats.BattlesWon != 1 || bobStats.CurrentWinStreak != 1 || bobStats.ConDebates != 1 {
		t.Fatalf("unexpected stats: %+v %+v", aliceStats, bobStats)
	}

	if len(f.announcer.got) != 1 {
		t.Fatalf("expected one announcement, got %d", len(f.announcer.got))
	}
	a := f.announcer.got[0]
	if a.Winner.Username != "bob" || a.Winner.Score != 20 || a.Loser.Username != "alice" || a.TopicTitle != "Cities should ban cars" {
		t.Fatalf("unexpected announcement: %+v", a)
	}
}

func TestJudge_ConcurrentCallersShareOneJudgment(t *testing.T) {
	f := newFixture(t)
	f.judge.release = make(chan struct{})
	ctx := context.Background()
	id := f.startBattle(t)
	f.playAll(t, id)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]debatedto.JudgeResult, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := f.alice.ID
			if i%2 == 1 {
				user = f.bob.ID
			}
			results[i], errs[i] = f.svc.Judge(ctx, user, id)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.judge.release)
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i].Winner.ID != f.alice.ID {
			t.Fatalf("caller %d: unexpected winner %+v", i, results[i].Winner)
		}
	}
	if f.judge.calls.Load() != 1 {
		t.Fatalf("expected one judgment, got %d", f.judge.calls.Load())
	}
	st, _ := f.repo.GetStats(ctx, f.alice.ID)
	if st.TotalBattles != 1 {
		t.Fatalf("expected stats applied once, got %+v", st)
	}
}

func TestJudge_LockedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.startBattle(t)
	f.playAll(t, id)

	locker := NewMemoryLocker()
	f.svc.locker = locker
	if _, ok, _ := locker.TryLock(ctx, judgeLockPrefix+id, time.Minute); !ok {
		t.Fatal("expected to take the lock")
	}
	if _, err := f.svc.Judge(ctx, f.alice.ID, id); statusOf(t, err) != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.judge.calls.Load() != 0 {
		t.Fatal("judge must not run while another holder owns the lock")
	}
}

func TestJudge_FailureLeavesBattleInProgress(t *testing.T) {
	f := newFixture(t)
	f.judge.err = errors.New("model unavailable")
	ctx := context.Background()
	id := f.startBattle(t)
	f.playAll(t, id)

	if _, err := f.svc.Judge(ctx, f.alice.ID, id); statusOf(t, err) != http.StatusInternalServerError {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := f.repo.GetBattle(ctx, id)
	if b.Status != "in_progress" || b.Judgment != nil {
		t.Fatalf("expected battle untouched: %+v", b)
	}

	f.judge.err = nil
	if _, err := f.svc.Judge(ctx, f.alice.ID, id); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}
