// Package poller follows a battle from a participant's point of view by
// polling its status and segments on fixed intervals until it is judged.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/pkg/debatedto"
)

const (
	DefaultStatusInterval   = 2 * time.Second
	DefaultSegmentsInterval = 3 * time.Second
)

type Source interface {
	BattleStatus(ctx context.Context, battleID string) (debatedto.BattleStatus, error)
	BattleSegments(ctx context.Context, battleID string) ([]debatedto.BattleSegment, error)
}

type State int32

const (
	StateIdle State = iota
	StateLoading
	StatePolling
	StateDone
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Config struct {
	StatusInterval   time.Duration
	SegmentsInterval time.Duration
}

// Handlers are called from the polling goroutine. They must not call Stop.
type Handlers struct {
	OnStatus   func(debatedto.BattleStatus)
	OnSegments func([]debatedto.BattleSegment)
	// OnComplete fires once, when a completed battle with a judgment is first seen.
	OnComplete func(debatedto.BattleStatus)
}

type Poller struct {
	src      Source
	battleID string
	cfg      Config
	handlers Handlers

	state atomic.Int32

	// emitMu serializes handler calls with Stop so nothing fires after Stop returns.
	emitMu  sync.Mutex
	mounted bool

	lastMu sync.Mutex
	last   *debatedto.BattleStatus

	startOnce    sync.Once
	completeOnce sync.Once
	cancel       context.CancelFunc
	done         chan struct{}
}

func New(src Source, battleID string, cfg Config, handlers Handlers) *Poller {
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusInterval
	}
	if cfg.SegmentsInterval <= 0 {
		cfg.SegmentsInterval = DefaultSegmentsInterval
	}
	return &Poller{
		src:      src,
		battleID: battleID,
		cfg:      cfg,
		handlers: handlers,
		mounted:  true,
		done:     make(chan struct{}),
	}
}

func (p *Poller) State() State {
	return State(p.state.Load())
}

// Last returns the most recent status fetched successfully.
func (p *Poller) Last() (debatedto.BattleStatus, bool) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	if p.last == nil {
		return debatedto.BattleStatus{}, false
	}
	return *p.last, true
}

// Done is closed once polling has ended, by completion or Stop.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Start begins polling in a new goroutine. Later calls are ignored.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		go p.run(ctx)
	})
}

// Stop ends polling and waits for the polling goroutine to exit. No handler
// runs after Stop returns.
func (p *Poller) Stop() {
	p.emitMu.Lock()
	p.mounted = false
	p.emitMu.Unlock()

	started := true
	p.startOnce.Do(func() {
		started = false
		close(p.done)
	})
	if started {
		p.cancel()
		<-p.done
	}
	p.state.CompareAndSwap(int32(StateIdle), int32(StateStopped))
	p.state.CompareAndSwap(int32(StateLoading), int32(StateStopped))
	p.state.CompareAndSwap(int32(StatePolling), int32(StateStopped))
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	p.state.Store(int32(StateLoading))
	if p.pollStatus(ctx) {
		return
	}
	if p.inProgress() {
		p.pollSegments(ctx)
	}
	p.state.CompareAndSwap(int32(StateLoading), int32(StatePolling))

	statusTicker := time.NewTicker(p.cfg.StatusInterval)
	defer statusTicker.Stop()
	segmentsTicker := time.NewTicker(p.cfg.SegmentsInterval)
	defer segmentsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTicker.C:
			if p.pollStatus(ctx) {
				return
			}
		case <-segmentsTicker.C:
			if p.inProgress() {
				p.pollSegments(ctx)
			}
		}
	}
}

func (p *Poller) emit(fn func()) bool {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if !p.mounted {
		return false
	}
	fn()
	return true
}

func (p *Poller) inProgress() bool {
	st, ok := p.Last()
	return ok && st.Status == string(debate.BattleInProgress)
}

// pollStatus reports true once polling should end.
func (p *Poller) pollStatus(ctx context.Context) bool {
	st, err := p.src.BattleStatus(ctx, p.battleID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Warn("battle status poll failed", "battle_id", p.battleID, "error", err)
		return false
	}
	p.lastMu.Lock()
	p.last = &st
	p.lastMu.Unlock()

	if !p.emit(func() {
		if p.handlers.OnStatus != nil {
			p.handlers.OnStatus(st)
		}
	}) {
		return true
	}

	if st.Status == string(debate.BattleCompleted) && st.Judgment != nil {
		p.completeOnce.Do(func() {
			p.state.Store(int32(StateDone))
			slog.Debug("battle completed, leaving poll loop", "battle_id", p.battleID)
			p.emit(func() {
				if p.handlers.OnComplete != nil {
					p.handlers.OnComplete(st)
				}
			})
		})
		return true
	}
	return false
}

func (p *Poller) pollSegments(ctx context.Context) {
	segs, err := p.src.BattleSegments(ctx, p.battleID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("battle segments poll failed", "battle_id", p.battleID, "error", err)
		}
		return
	}
	p.emit(func() {
		if p.handlers.OnSegments != nil {
			p.handlers.OnSegments(segs)
		}
	})
}
