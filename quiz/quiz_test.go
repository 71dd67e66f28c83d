// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"context"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ice-blockchain/defender/scenarios"
)

type (
	pendingFire struct {
		fire      func()
		delay     stdlibtime.Duration
		cancelled bool
		fired     bool
	}
	manualScheduler struct {
		pending []*pendingFire
		mx      sync.Mutex
	}
	recorder struct {
		notifications []*Notification
		mx            sync.Mutex
	}
)

func (s *manualScheduler) Schedule(delay stdlibtime.Duration, fire func()) (cancel func() bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pf := &pendingFire{fire: fire, delay: delay}
	s.pending = append(s.pending, pf)

	return func() bool {
		s.mx.Lock()
		defer s.mx.Unlock()
		stopped := !pf.cancelled && !pf.fired
		pf.cancelled = true

		return stopped
	}
}

// next returns the oldest pending fire that was neither cancelled nor fired yet.
func (s *manualScheduler) next(t *testing.T) *pendingFire {
	t.Helper()
	s.mx.Lock()
	defer s.mx.Unlock()
	for _, pf := range s.pending {
		if !pf.cancelled && !pf.fired {
			return pf
		}
	}
	t.Fatal("nothing scheduled")

	return nil
}

func (s *manualScheduler) active() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	var count int
	for _, pf := range s.pending {
		if !pf.cancelled && !pf.fired {
			count++
		}
	}

	return count
}

// elapse fires the oldest pending transition, the way the timer would after its delay.
func (s *manualScheduler) elapse(t *testing.T) stdlibtime.Duration {
	t.Helper()
	pf := s.next(t)
	s.mx.Lock()
	pf.fired = true
	s.mx.Unlock()
	pf.fire()

	return pf.delay
}

func (r *recorder) Record(n *Notification) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) Events() []Event {
	r.mx.Lock()
	defer r.mx.Unlock()
	events := make([]Event, 0, len(r.notifications))
	for _, n := range r.notifications {
		events = append(events, n.Event)
	}

	return events
}

func (r *recorder) Last() *Notification {
	r.mx.Lock()
	defer r.mx.Unlock()
	if len(r.notifications) == 0 {
		return nil
	}

	return r.notifications[len(r.notifications)-1]
}

func helperEngine(t *testing.T, content string, mode Mode) (*engine, *manualScheduler, *recorder) {
	t.Helper()
	set, err := scenarios.Builtin(content)
	require.NoError(t, err)
	sched, rec := new(manualScheduler), new(recorder)
	eng, err := newEngine(context.Background(), set, DefaultConfig(mode), sched)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, eng.Close()) })
	eng.Subscribe(rec.Record)

	return eng, sched, rec
}

func helperCorrect(t *testing.T, set *scenarios.Set, idx int) Choice {
	t.Helper()
	rec, err := set.At(idx)
	require.NoError(t, err)

	return rec.Correct
}

func helperIncorrect(t *testing.T, set *scenarios.Set, idx int) Choice {
	t.Helper()
	correct := helperCorrect(t, set, idx)
	if set.Kind() == scenarios.BinaryKind {
		if correct.Judgment == scenarios.SecureJudgment {
			return scenarios.JudgmentChoice(scenarios.SurrenderJudgment)
		}

		return scenarios.JudgmentChoice(scenarios.SecureJudgment)
	}

	return scenarios.OptionChoice((correct.Option + 1) % 3) //nolint:gomnd // Every built-in scenario has 3 options.
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("NilSet", func(t *testing.T) {
		t.Parallel()
		_, err := New(context.Background(), nil, nil)
		require.ErrorIs(t, err, scenarios.ErrInvalidContent)
	})
	t.Run("InvalidConfig", func(t *testing.T) {
		t.Parallel()
		set, err := scenarios.Builtin(scenarios.SnakePathContent)
		require.NoError(t, err)
		_, err = New(context.Background(), set, &Config{Mode: "bogus"})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("InitialState", func(t *testing.T) {
		t.Parallel()
		eng, sched, _ := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		require.Equal(t, State{
			Total:    5,
			Progress: Progress{Style: GrowingPathProgress, Filled: 1, Total: 6},
		}, eng.Snapshot())
		assert.Zero(t, sched.active())
		assert.Same(t, eng.set, eng.Scenarios())
	})
}

func TestRetryMode(t *testing.T) { //nolint:funlen // .
	t.Parallel()

	t.Run("WrongThenCorrect", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		wrong := scenarios.OptionChoice(0)

		state := eng.Select(wrong)
		require.Equal(t, &wrong, state.Selected)
		require.True(t, state.FeedbackVisible)
		require.Equal(t, &Feedback{Explanation: "Never click suspicious links or share personal info. Always check with a trusted adult!"}, state.Feedback)
		require.Equal(t, 1, state.RetryCount)
		require.Equal(t, 0, state.CurrentIndex)
		require.Equal(t, 0, state.ProgressMarker)

		t.Run("IgnoredWhileFeedbackVisible", func(t *testing.T) {
			again := eng.Select(scenarios.OptionChoice(1))
			require.Equal(t, state, again)
			require.Equal(t, 1, sched.active())
		})

		require.Equal(t, defaultRetryDelay, sched.elapse(t))
		state = eng.Snapshot()
		require.Nil(t, state.Selected)
		require.Nil(t, state.Feedback)
		require.False(t, state.FeedbackVisible)
		require.Equal(t, 1, state.RetryCount)
		require.Equal(t, 0, state.CurrentIndex)

		state = eng.Select(scenarios.OptionChoice(1))
		require.True(t, state.FeedbackVisible)
		require.True(t, state.Feedback.Correct)
		require.Equal(t, 0, state.ProgressMarker)
		require.Equal(t, 0, state.CurrentIndex)

		require.Equal(t, defaultAdvanceDelay, sched.elapse(t))
		state = eng.Snapshot()
		require.Equal(t, 1, state.ProgressMarker)
		require.Equal(t, 1, state.CurrentIndex)
		require.Equal(t, 0, state.RetryCount)
		require.Nil(t, state.Selected)
		require.False(t, state.FeedbackVisible)
		require.Equal(t, Progress{Style: GrowingPathProgress, Filled: 2, Total: 6, Grown: true}, state.Progress)
		require.Equal(t, []Event{SelectedEvent, FeedbackHiddenEvent, SelectedEvent, AdvancedEvent}, rec.Events())
	})

	t.Run("CompletionNeedsExactlyNCorrect", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		set := eng.Scenarios()
		var marker int
		for idx := 0; idx < set.Len(); idx++ {
			for attempt := 0; attempt < idx%3; attempt++ {
				state := eng.Select(helperIncorrect(t, set, idx))
				require.Equal(t, attempt+1, state.RetryCount)
				sched.elapse(t)
				require.Equal(t, marker, eng.Snapshot().ProgressMarker)
			}
			eng.Select(helperCorrect(t, set, idx))
			sched.elapse(t)
			state := eng.Snapshot()
			require.Equal(t, marker+1, state.ProgressMarker)
			marker = state.ProgressMarker
		}
		state := eng.Snapshot()
		require.True(t, state.Completed)
		require.Equal(t, set.Len(), state.ProgressMarker)
		require.Equal(t, set.Len()-1, state.CurrentIndex)
		require.Equal(t, Progress{Style: GrowingPathProgress, Filled: 6, Total: 6, Grown: true, Finished: true}, state.Progress)
		require.Equal(t, CompletedEvent, rec.Last().Event)

		t.Run("IgnoredAfterCompletion", func(t *testing.T) {
			require.Equal(t, state, eng.Select(helperCorrect(t, set, set.Len()-1)))
			require.Zero(t, sched.active())
		})
	})

	t.Run("InvalidChoiceIgnored", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		initial := eng.Snapshot()
		require.Equal(t, initial, eng.Select(scenarios.OptionChoice(3)))
		require.Equal(t, initial, eng.Select(scenarios.OptionChoice(-1)))
		require.Equal(t, initial, eng.Select(scenarios.JudgmentChoice(scenarios.SecureJudgment)))
		require.Zero(t, sched.active())
		require.Empty(t, rec.Events())
	})
}

func TestSingleShotMode(t *testing.T) { //nolint:funlen // .
	t.Parallel()

	t.Run("IncorrectStillAdvances", func(t *testing.T) {
		t.Parallel()
		eng, sched, _ := helperEngine(t, scenarios.SecureOrSurrenderContent, SingleShotMode)
		surrender := scenarios.JudgmentChoice(scenarios.SurrenderJudgment)

		state := eng.Select(surrender)
		require.Equal(t, &surrender, state.Selected)
		require.Equal(t, &Feedback{Explanation: "Closing scary pop-ups and asking for help is the safe move."}, state.Feedback)
		require.Equal(t, 0, state.Score)
		require.Equal(t, 0, state.RetryCount)

		require.Equal(t, defaultJudgmentDelay, sched.elapse(t))
		state = eng.Snapshot()
		require.Equal(t, 1, state.CurrentIndex)
		require.Equal(t, 0, state.Score)
		require.Equal(t, 1, state.ProgressMarker)
		require.False(t, state.FeedbackVisible)
	})

	t.Run("CorrectHidesExplanation", func(t *testing.T) {
		t.Parallel()
		eng, sched, _ := helperEngine(t, scenarios.SecureOrSurrenderContent, SingleShotMode)
		state := eng.Select(scenarios.JudgmentChoice(scenarios.SecureJudgment))
		require.Equal(t, &Feedback{Correct: true}, state.Feedback)
		require.Equal(t, 0, state.Score)

		sched.elapse(t)
		state = eng.Snapshot()
		require.Equal(t, 1, state.Score)
		require.Equal(t, 1, state.CurrentIndex)
		require.Equal(t, Progress{Style: ScoreProgress, Filled: 1, Total: 5, Grown: true}, state.Progress)
	})

	t.Run("ScoreCountsCorrectJudgments", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SecureOrSurrenderContent, SingleShotMode)
		set := eng.Scenarios()
		var correct int
		for idx := 0; idx < set.Len(); idx++ {
			choice := helperIncorrect(t, set, idx)
			if idx%2 == 0 {
				choice = helperCorrect(t, set, idx)
				correct++
			}
			state := eng.Select(choice)
			require.LessOrEqual(t, state.Score, state.CurrentIndex)
			sched.elapse(t)
			state = eng.Snapshot()
			require.Equal(t, correct, state.Score)
			if !state.Completed {
				require.Equal(t, idx+1, state.CurrentIndex)
				require.LessOrEqual(t, state.Score, state.CurrentIndex)
			}
		}
		state := eng.Snapshot()
		require.True(t, state.Completed)
		require.Equal(t, 3, state.Score)
		require.Equal(t, set.Len(), state.ProgressMarker)
		require.Equal(t, set.Len()-1, state.CurrentIndex)
		require.Equal(t, CompletedEvent, rec.Last().Event)
	})
}

func TestRestart(t *testing.T) { //nolint:funlen // .
	t.Parallel()

	t.Run("CancelsPendingAdvance", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		initial := eng.Snapshot()
		eng.Select(scenarios.OptionChoice(1))
		pending := sched.next(t)

		require.Equal(t, initial, eng.Restart())
		require.Zero(t, sched.active())
		require.True(t, pending.cancelled)

		// The timer already fired before it could be stopped.
		pending.fire()
		require.Equal(t, initial, eng.Snapshot())
		require.Equal(t, []Event{SelectedEvent, RestartedEvent}, rec.Events())
	})

	t.Run("CancelsPendingRetry", func(t *testing.T) {
		t.Parallel()
		eng, sched, _ := helperEngine(t, scenarios.SnakePathContent, RetryMode)
		initial := eng.Snapshot()
		eng.Select(scenarios.OptionChoice(0))
		pending := sched.next(t)
		require.Equal(t, initial, eng.Restart())

		state := eng.Select(scenarios.OptionChoice(2))
		pending.fire()
		require.Equal(t, state, eng.Snapshot())
		require.True(t, eng.Snapshot().FeedbackVisible)
	})

	t.Run("CancelsPendingJudgment", func(t *testing.T) {
		t.Parallel()
		eng, sched, rec := helperEngine(t, scenarios.SecureOrSurrenderContent, SingleShotMode)
		initial := eng.Snapshot()
		state := eng.Select(helperCorrect(t, eng.Scenarios(), 0))
		require.True(t, state.Feedback.Correct)
		pending := sched.next(t)
		require.Equal(t, defaultJudgmentDelay, pending.delay)

		require.Equal(t, initial, eng.Restart())
		require.True(t, pending.cancelled)

		pending.fire()
		state = eng.Snapshot()
		require.Equal(t, initial, state)
		require.Zero(t, state.Score)
		require.Zero(t, state.CurrentIndex)
		require.Zero(t, state.ProgressMarker)
		require.Equal(t, []Event{SelectedEvent, RestartedEvent}, rec.Events())
	})

	t.Run("AfterCompletion", func(t *testing.T) {
		t.Parallel()
		eng, sched, _ := helperEngine(t, scenarios.SecureOrSurrenderContent, SingleShotMode)
		initial := eng.Snapshot()
		set := eng.Scenarios()
		for idx := 0; idx < set.Len(); idx++ {
			eng.Select(helperCorrect(t, set, idx))
			sched.elapse(t)
		}
		require.True(t, eng.Snapshot().Completed)
		require.Equal(t, initial, eng.Restart())
		require.Equal(t, initial, eng.Restart())
	})
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	eng, sched, all := helperEngine(t, scenarios.SnakePathContent, RetryMode)
	partial := new(recorder)
	unsubscribe := eng.Subscribe(partial.Record)

	eng.Select(scenarios.OptionChoice(1))
	require.NotNil(t, partial.Last().At)
	require.Equal(t, SelectedEvent, partial.Last().Event)
	require.True(t, partial.Last().State.FeedbackVisible)

	unsubscribe()
	sched.elapse(t)
	eng.Snapshot()
	require.Equal(t, []Event{SelectedEvent}, partial.Events())
	require.Equal(t, []Event{SelectedEvent, AdvancedEvent}, all.Events())
	require.Equal(t, eng.Snapshot(), all.Last().State)
}

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("Close", func(t *testing.T) {
		t.Parallel()
		set, err := scenarios.Builtin(scenarios.SnakePathContent)
		require.NoError(t, err)
		sched := new(manualScheduler)
		eng, err := newEngine(context.Background(), set, nil, sched)
		require.NoError(t, err)
		state := eng.Select(scenarios.OptionChoice(1))
		pending := sched.next(t)
		require.NoError(t, eng.Close())
		require.ErrorIs(t, eng.Close(), ErrClosed)
		require.True(t, pending.cancelled)

		pending.fire()
		require.Equal(t, state, eng.Snapshot())
		require.Equal(t, state, eng.Restart())
	})
	t.Run("ContextDone", func(t *testing.T) {
		t.Parallel()
		set, err := scenarios.Builtin(scenarios.SnakePathContent)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		eng, err := newEngine(ctx, set, nil, new(manualScheduler))
		require.NoError(t, err)
		cancel()
		<-eng.done
		require.Equal(t, 5, eng.Select(scenarios.OptionChoice(1)).Total)
		require.NoError(t, eng.Close())
	})
}

func TestTimers(t *testing.T) {
	t.Parallel()

	set, err := scenarios.Builtin(scenarios.TokenPathContent)
	require.NoError(t, err)
	cfg := &Config{
		Mode:     RetryMode,
		Progress: TokenPathProgress,
		Delays:   Delays{Advance: 10 * stdlibtime.Millisecond, Retry: 10 * stdlibtime.Millisecond},
	}
	eng, err := New(context.Background(), set, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()
	advanced := make(chan State, 1)
	eng.Subscribe(func(n *Notification) {
		if n.Event == AdvancedEvent {
			advanced <- n.State
		}
	})

	eng.Select(helperCorrect(t, set, 0))
	select {
	case state := <-advanced:
		require.Equal(t, 1, state.CurrentIndex)
		require.Equal(t, Progress{Style: TokenPathProgress, Filled: 1, Total: 6, Grown: true}, state.Progress)
	case <-stdlibtime.After(5 * stdlibtime.Second):
		t.Fatal("transition never applied")
	}
}
