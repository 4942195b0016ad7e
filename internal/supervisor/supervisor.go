// Package supervisor owns the scheduler, engine, Discord RPC client, and
// provider chain, and drives the cooperative poll loop, RPC loop, and
// signal/reload dispatch that keep them running. The signal-handling and
// context-cancellation shape is grounded on grovetools-core/cmd/groved.go's
// daemon start command.
package supervisor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/discordrpc"
	"github.com/vincenzomaritato/presence-bridge/internal/engine"
	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/providers"
	"github.com/vincenzomaritato/presence-bridge/internal/scheduler"
)

// maxConsecutiveErrors is the number of consecutive provider errors that
// degrades the observed state to Stopped and lets a Clear flow through the
// normal engine path.
const maxConsecutiveErrors = 3

// decisionQueueCapacity bounds the channel from the poll loop to the RPC
// loop; when full, the poll loop drops the older pending Decision in favor
// of the newer one, since presence is state, not log.
const decisionQueueCapacity = 4

// shutdownClearTimeout bounds the best-effort Clear sent on graceful
// shutdown before the RPC transport is closed.
const shutdownClearTimeout = 500 * time.Millisecond

// reconnectCheckInterval is how often the RPC loop calls EnsureConnected on
// its own, independent of Decisions arriving from the poll loop. Discord's
// client can drop and come back at any time, including during a long
// throttled stretch of unchanged playback where no Decision is ever
// enqueued; without this the transport would only get a chance to recover
// whenever the next unrelated state change happens to occur.
const reconnectCheckInterval = 5 * time.Second

// Supervisor wires a Manager, Chain, Scheduler, Engine, and discordrpc.Client
// into a three-task cooperative model: a poll loop, an RPC loop, and this
// type's own signal/reload dispatch.
type Supervisor struct {
	cfgMgr *config.Manager
	chain  *providers.Chain
	sched  *scheduler.Scheduler
	eng    *engine.Engine
	rpc    *discordrpc.Client
	log    *logrus.Entry

	decisions chan engine.Decision

	mu                sync.Mutex
	consecutiveErrors int
}

// New builds a Supervisor from already-constructed collaborators.
func New(cfgMgr *config.Manager, chain *providers.Chain, sched *scheduler.Scheduler, eng *engine.Engine, rpc *discordrpc.Client, log *logrus.Entry) *Supervisor {
	return &Supervisor{
		cfgMgr:    cfgMgr,
		chain:     chain,
		sched:     sched,
		eng:       eng,
		rpc:       rpc,
		log:       log,
		decisions: make(chan engine.Decision, decisionQueueCapacity),
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives, driving
// the poll loop and RPC loop concurrently and performing a best-effort
// Clear before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	reloadStop := make(chan struct{})
	go s.cfgMgr.Watch(reloadStop)
	defer close(reloadStop)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.pollLoop(ctx) }()
	go func() { defer wg.Done(); s.rpcLoop(ctx) }()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			s.shutdownClear()
			return nil
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				s.log.Info("received SIGHUP, reloading configuration")
				s.cfgMgr.ReloadNow()
				continue
			}
			s.log.WithField("signal", sig.String()).Info("shutting down")
			cancel()
			wg.Wait()
			s.shutdownClear()
			return nil
		}
	}
}

// pollLoop sleeps for the scheduler's poll delay, invokes the provider
// chain, runs the resulting snapshot through the engine synchronously, and
// forwards any Decision to the RPC loop.
func (s *Supervisor) pollLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		cfg := s.cfgMgr.Current()
		s.sched.UpdateConfig(cfg)
		s.eng.UpdateConfig(cfg)
		s.rpc.UpdateClientID(cfg.DiscordAppID)

		snap := s.chain.PollBest(ctx)
		snap, shouldTick := s.applyErrorDegradation(snap)

		if shouldTick {
			if decision := s.eng.Tick(snap, time.Now()); decision.Kind != engine.DecisionNoOp {
				s.enqueue(decision)
			}
		}

		delay := s.sched.NextPollDelay(snap.State)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// applyErrorDegradation implements the provider error taxonomy: a single
// transient error is recorded but otherwise kept out of the engine, so
// whatever presence was already showing remains untouched; only once a run
// of maxConsecutiveErrors consecutive errors accumulates does a Stopped
// snapshot reach the engine, letting the normal Clear-on-stop path fire.
// The bool return reports whether the caller should feed snap to the engine
// at all this poll.
func (s *Supervisor) applyErrorDegradation(snap model.Snapshot) (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.State != model.StateError {
		s.consecutiveErrors = 0
		return snap, true
	}

	s.consecutiveErrors++
	s.log.WithField("consecutive_errors", s.consecutiveErrors).WithField("error", snap.LastError).Debug("provider poll failed")
	if s.consecutiveErrors < maxConsecutiveErrors {
		return snap, false
	}
	return model.Snapshot{State: model.StateStopped, CapturedAt: snap.CapturedAt}, true
}

// enqueue drops the oldest pending Decision in favor of the newest when the
// RPC loop falls behind.
func (s *Supervisor) enqueue(decision engine.Decision) {
	for {
		select {
		case s.decisions <- decision:
			return
		default:
			select {
			case <-s.decisions:
			default:
			}
		}
	}
}

// rpcLoop owns the Discord transport exclusively, applies each Decision in
// order, and independently retries the connection (and, on a successful
// reconnect, resends the current activity) on reconnectCheckInterval so a
// dropped transport recovers even while no Decision is flowing.
func (s *Supervisor) rpcLoop(ctx context.Context) {
	ticker := time.NewTicker(reconnectCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case decision := <-s.decisions:
			s.apply(decision)
		case <-ticker.C:
			if err := s.rpc.EnsureConnected(); err != nil {
				s.log.WithError(err).Debug("discord rpc reconnect attempt failed")
			}
		}
	}
}

func (s *Supervisor) apply(decision engine.Decision) {
	var err error
	switch decision.Kind {
	case engine.DecisionSetActivity:
		err = s.rpc.SetActivity(decision.Activity)
	case engine.DecisionClear:
		err = s.rpc.Clear()
	default:
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("decision", decision.Kind.String()).Debug("discord rpc send failed")
	}
}

func (s *Supervisor) shutdownClear() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.rpc.Clear(); err != nil {
			s.log.WithError(err).Debug("best-effort clear on shutdown failed")
		}
	}()
	select {
	case <-done:
	case <-time.After(shutdownClearTimeout):
		s.log.Debug("shutdown clear timed out")
	}
	_ = s.rpc.Close()
}
