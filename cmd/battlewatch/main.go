// Command battlewatch follows one battle from a participant's seat. It logs
// in, polls the battle until it is judged and prints the verdict once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/foxseedlab/debaide/external/apiclient"
	"github.com/foxseedlab/debaide/internal/poller"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

const loginTimeout = 15 * time.Second

type options struct {
	BaseURL  string `env:"BATTLEWATCH_BASE_URL" envDefault:"http://localhost:8000"`
	Username string `env:"BATTLEWATCH_USERNAME"`
	Password string `env:"BATTLEWATCH_PASSWORD"`
	Token    string `env:"BATTLEWATCH_TOKEN"`
	BattleID string `env:"BATTLEWATCH_BATTLE_ID"`
	// AutoJudge requests judgment once the battle is ready. Both participants may
	// do this; the server judges once.
	AutoJudge bool `env:"BATTLEWATCH_AUTO_JUDGE" envDefault:"true"`
	Debug     bool `env:"BATTLEWATCH_DEBUG"`
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("battlewatch failed", "error", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	if err := env.Parse(&opts); err != nil {
		return opts, fmt.Errorf("parse env: %w", err)
	}
	fs := flag.NewFlagSet("battlewatch", flag.ContinueOnError)
	fs.StringVar(&opts.BaseURL, "url", opts.BaseURL, "API base URL")
	fs.StringVar(&opts.Username, "user", opts.Username, "username to log in with")
	fs.StringVar(&opts.Password, "password", opts.Password, "password to log in with")
	fs.StringVar(&opts.Token, "token", opts.Token, "bearer token, instead of username and password")
	fs.StringVar(&opts.BattleID, "battle", opts.BattleID, "battle id to follow")
	fs.BoolVar(&opts.AutoJudge, "judge", opts.AutoJudge, "request judgment when both sides are done")
	fs.BoolVar(&opts.Debug, "debug", opts.Debug, "debug logging")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.BattleID == "" {
		return opts, errors.New("battle id is required (-battle or BATTLEWATCH_BATTLE_ID)")
	}
	if opts.Token == "" && (opts.Username == "" || opts.Password == "") {
		return opts, errors.New("either -token or both -user and -password are required")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	client := apiclient.New(opts.BaseURL, apiclient.WithToken(opts.Token))
	if opts.Token == "" {
		lctx, cancel := context.WithTimeout(ctx, loginTimeout)
		auth, err := client.Login(lctx, opts.Username, opts.Password)
		cancel()
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		slog.Info("logged in", "user_id", auth.User.ID, "username", auth.User.Username)
	}

	w := newWatcher(client, opts.BattleID, opts.AutoJudge, out)
	p := poller.New(client, opts.BattleID, poller.Config{}, poller.Handlers{
		OnStatus:   func(st debatedto.BattleStatus) { w.status(ctx, st) },
		OnSegments: w.segments,
		OnComplete: w.complete,
	})
	p.Start(ctx)
	defer p.Stop()

	select {
	case <-p.Done():
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
	if p.State() != poller.StateDone {
		return errors.New("polling ended before the battle was judged")
	}
	return nil
}

type judger interface {
	JudgeBattle(ctx context.Context, battleID string) (debatedto.JudgeResult, error)
}

// watcher renders poll results. Its methods run on the poller goroutine.
type watcher struct {
	judger    judger
	battleID  string
	autoJudge bool
	out       io.Writer

	lastLine  string
	seen      int
	judgeOnce sync.Once
}

func newWatcher(j judger, battleID string, autoJudge bool, out io.Writer) *watcher {
	return &watcher{judger: j, battleID: battleID, autoJudge: autoJudge, out: out}
}

func (w *watcher) status(ctx context.Context, st debatedto.BattleStatus) {
	line := statusLine(st)
	if line != w.lastLine {
		fmt.Fprintln(w.out, line)
		w.lastLine = line
	}
	if w.autoJudge && st.ReadyToJudge {
		w.judgeOnce.Do(func() {
			go w.requestJudgment(ctx)
		})
	}
}

func (w *watcher) requestJudgment(ctx context.Context) {
	slog.Info("requesting judgment", "battle_id", w.battleID)
	if _, err := w.judger.JudgeBattle(ctx, w.battleID); err != nil {
		var apiErr *debatedto.APIError
		if errors.As(err, &apiErr) {
			slog.Warn("judgment request rejected", "battle_id", w.battleID, "status", apiErr.StatusCode, "detail", apiErr.Detail)
			return
		}
		slog.Warn("judgment request failed", "battle_id", w.battleID, "error", err)
	}
}

func (w *watcher) segments(segs []debatedto.BattleSegment) {
	for _, s := range segs[min(w.seen, len(segs)):] {
		fmt.Fprintf(w.out, "  [%s] %s: %s\n", s.Kind, s.PlayerID, s.Transcript)
	}
	if len(segs) > w.seen {
		w.seen = len(segs)
	}
}

func (w *watcher) complete(st debatedto.BattleStatus) {
	fmt.Fprint(w.out, resultText(st))
}

func statusLine(st debatedto.BattleStatus) string {
	switch st.Status {
	case "waiting":
		return "waiting for an opponent"
	case "completed":
		return "battle completed, waiting for the verdict"
	}
	if st.ReadyToJudge {
		return "all segments submitted, ready to judge"
	}
	who := "opponent"
	if st.IsYourTurn {
		who = "you"
	}
	return fmt.Sprintf("%s: %s to speak", st.CurrentSegment, who)
}

func resultText(st debatedto.BattleStatus) string {
	j := st.Judgment
	var b strings.Builder
	winner := st.Player1
	if j.Winner == debatedto.WinnerPlayer2 && st.Player2 != nil {
		winner = *st.Player2
	}
	fmt.Fprintf(&b, "winner: %s (%s)\n", winner.Username, winner.Stance)
	p2 := "player2"
	if st.Player2 != nil {
		p2 = st.Player2.Username
	}
	fmt.Fprintf(&b, "scores: %s %.1f, %s %.1f\n", st.Player1.Username, j.Player1Scores.Total, p2, j.Player2Scores.Total)
	if j.DecisionSummary != "" {
		fmt.Fprintf(&b, "%s\n", j.DecisionSummary)
	}
	return b.String()
}
