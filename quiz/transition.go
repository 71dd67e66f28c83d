// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"github.com/ice-blockchain/defender/scenarios"
)

func initialState(set *scenarios.Set, cfg *Config) State {
	st := State{Total: set.Len()}
	st.Progress = progressOf(cfg.Progress, &st)

	return st
}

// reduce maps the current machine and a command to the next machine.
// It returns the event to publish (empty when nothing changed) and the delayed transition to schedule, if any.
func reduce(set *scenarios.Set, cfg *Config, mch machine, cmd *command) (machine, Event, *transition) {
	var (
		event Event
		next  *transition
	)
	switch cmd.kind {
	case selectCommand:
		event, next = mch.selectChoice(set, cfg, cmd.choice)
	case restartCommand:
		mch.epoch++
		mch.state = initialState(set, cfg)
		event = RestartedEvent
	case applyCommand:
		event = mch.apply(cfg, cmd.transition)
	case snapshotCommand:
	}
	if event != "" {
		mch.state.Progress = progressOf(cfg.Progress, &mch.state)
		mch.state.Progress.Grown = event == AdvancedEvent || event == CompletedEvent
	}

	return mch, event, next
}

func (m *machine) selectChoice(set *scenarios.Set, cfg *Config, choice Choice) (Event, *transition) {
	st := &m.state
	if st.FeedbackVisible || st.Completed || !set.Accepts(st.CurrentIndex, choice) {
		return "", nil
	}
	rec, err := set.At(st.CurrentIndex)
	if err != nil {
		return "", nil
	}
	correct := choice == rec.Correct
	st.Selected = &choice
	st.FeedbackVisible = true
	st.Feedback = &Feedback{Correct: correct}
	if cfg.Mode == RetryMode || !correct {
		st.Feedback.Explanation = rec.Explanation
	}
	m.epoch++
	tr := &transition{epoch: m.epoch, kind: advanceTransition, correct: correct}
	switch {
	case cfg.Mode == SingleShotMode:
		tr.delay = cfg.Delays.Judgment
	case correct:
		tr.delay = cfg.Delays.Advance
	default:
		st.RetryCount++
		tr.kind = retryTransition
		tr.delay = cfg.Delays.Retry
	}

	return SelectedEvent, tr
}

func (m *machine) apply(cfg *Config, tr *transition) Event {
	if tr == nil || tr.epoch != m.epoch {
		return ""
	}
	m.epoch++
	st := &m.state
	st.Selected, st.Feedback, st.FeedbackVisible = nil, nil, false
	if tr.kind == retryTransition {
		return FeedbackHiddenEvent
	}
	st.ProgressMarker++
	st.RetryCount = 0
	if cfg.Mode == SingleShotMode && tr.correct {
		st.Score++
	}
	if st.CurrentIndex == st.Total-1 {
		st.Completed = true

		return CompletedEvent
	}
	st.CurrentIndex++

	return AdvancedEvent
}
