// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/scenarios"
	"github.com/ice-blockchain/wintr/log"
	"github.com/ice-blockchain/wintr/time"
)

func MustNew(ctx context.Context, set *scenarios.Set) Engine {
	eng, err := New(ctx, set, MustLoadConfig())
	log.Panic(errors.Wrap(err, "failed to start quiz engine")) //nolint:revive // .

	return eng
}

// New starts an engine walking through the set. The engine stops when ctx is done or when it is closed.
func New(ctx context.Context, set *scenarios.Set, cfg *Config) (Engine, error) {
	return NewWithScheduler(ctx, set, cfg, new(timerScheduler))
}

// NewWithScheduler is New with the delayed transitions driven by the given scheduler instead of timers.
func NewWithScheduler(ctx context.Context, set *scenarios.Set, cfg *Config, scheduler Scheduler) (Engine, error) {
	eng, err := newEngine(ctx, set, cfg, scheduler)
	if err != nil {
		return nil, err
	}

	return eng, nil
}

func newEngine(ctx context.Context, set *scenarios.Set, cfg *Config, scheduler Scheduler) (*engine, error) {
	if set == nil || set.Len() == 0 {
		return nil, errors.Wrap(scenarios.ErrInvalidContent, "no scenarios to walk through")
	}
	merged, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	eng := &engine{
		scheduler: scheduler,
		set:       set,
		cfg:       merged,
		commands:  make(chan *command),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		id:        uuid.NewString(),
		machine:   machine{state: initialState(set, merged)},
	}
	go eng.run(ctx)
	log.Debug(fmt.Sprintf("quiz engine %v started, mode:%v, progress:%v, scenarios:%v", eng.id, merged.Mode, merged.Progress, set.Len()))

	return eng, nil
}

func (e *engine) Select(choice Choice) State {
	return e.do(&command{kind: selectCommand, choice: choice})
}

func (e *engine) Restart() State {
	return e.do(&command{kind: restartCommand})
}

func (e *engine) Snapshot() State {
	return e.do(&command{kind: snapshotCommand})
}

func (e *engine) Scenarios() *scenarios.Set {
	return e.set
}

func (e *engine) Subscribe(subscriber Subscriber) (unsubscribe func()) {
	sub := &subscription{id: uuid.NewString(), fn: subscriber}
	e.subMx.Lock()
	e.subscriptions = append(e.subscriptions, sub)
	e.subMx.Unlock()

	return func() {
		e.subMx.Lock()
		defer e.subMx.Unlock()
		for ix, s := range e.subscriptions {
			if s.id == sub.id {
				e.subscriptions = append(e.subscriptions[:ix:ix], e.subscriptions[ix+1:]...)

				break
			}
		}
	}
}

// Close stops the loop and cancels the pending transition, if any. Closing twice yields ErrClosed.
func (e *engine) Close() error {
	closed := false
	e.closeOnce.Do(func() {
		close(e.quit)
		closed = true
	})
	<-e.done
	if !closed {
		return errors.Wrapf(ErrClosed, "engine %v", e.id)
	}

	return nil
}

// do hands the command over to the loop and waits for the resulting snapshot.
// Once the loop is gone, the last snapshot is returned as is.
func (e *engine) do(cmd *command) State {
	cmd.reply = make(chan State, 1)
	select {
	case e.commands <- cmd:
		return <-cmd.reply
	case <-e.done:
		return e.machine.state
	}
}

func (e *engine) run(ctx context.Context) {
	defer close(e.done)
	defer e.cancel()
	for {
		select {
		case cmd := <-e.commands:
			e.handle(cmd)
		case <-e.quit:
			log.Debug(fmt.Sprintf("quiz engine %v closed", e.id))

			return
		case <-ctx.Done():
			log.Debug(fmt.Sprintf("quiz engine %v stopped: %v", e.id, ctx.Err()))

			return
		}
	}
}

func (e *engine) handle(cmd *command) {
	next, event, tr := reduce(e.set, e.cfg, e.machine, cmd)
	switch {
	case cmd.kind == restartCommand:
		e.cancel()
	case cmd.kind == applyCommand && event == "":
		log.Debug(fmt.Sprintf("quiz engine %v dropped stale transition of epoch %v, current epoch %v", e.id, cmd.transition.epoch, e.machine.epoch))
	}
	e.machine = next
	if tr != nil {
		e.schedule(tr)
	}
	if event == CompletedEvent {
		log.Info(fmt.Sprintf("quiz engine %v completed, score:%v/%v", e.id, next.state.Score, next.state.Total))
	}
	if event != "" {
		e.publish(event, next.state)
	}
	if cmd.reply != nil {
		cmd.reply <- next.state
	}
}

func (e *engine) schedule(tr *transition) {
	e.cancel()
	e.cancelPending = e.scheduler.Schedule(tr.delay, func() {
		select {
		case e.commands <- &command{kind: applyCommand, transition: tr}:
		case <-e.done:
		}
	})
}

func (e *engine) cancel() {
	if e.cancelPending != nil {
		e.cancelPending()
		e.cancelPending = nil
	}
}

func (e *engine) publish(event Event, state State) {
	e.subMx.Lock()
	subs := append(make([]*subscription, 0, len(e.subscriptions)), e.subscriptions...)
	e.subMx.Unlock()
	now := time.Now()
	for _, sub := range subs {
		sub.fn(&Notification{At: now, Event: event, State: state})
	}
}
