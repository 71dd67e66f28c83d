// SPDX-License-Identifier: ice License 1.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/quiz"
	"github.com/ice-blockchain/defender/scenarios"
	"github.com/ice-blockchain/wintr/log"
	"github.com/ice-blockchain/wintr/time"
)

func newRenderer(out io.Writer, set *scenarios.Set, format string) *renderer {
	return &renderer{out: out, set: set, format: format}
}

func (r *renderer) Render(n *quiz.Notification) {
	r.mx.Lock()
	defer r.mx.Unlock()
	var err error
	if r.format == jsonOutput {
		err = r.writeJSON(n)
	} else {
		err = r.writeText(n.State)
	}
	log.Error(errors.Wrapf(err, "failed to render %v", n.Event))
}

func (r *renderer) RenderState(state quiz.State) {
	r.Render(&quiz.Notification{At: time.Now(), State: state})
}

func (r *renderer) Hint(text string) {
	if r.format == jsonOutput {
		return
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	_, err := fmt.Fprintln(r.out, text)
	log.Error(errors.Wrap(err, "failed to write hint"))
}

func (r *renderer) writeJSON(n *quiz.Notification) error {
	frame := &jsonFrame{Notification: n}
	if !n.State.Completed {
		frame.Scenario, _ = r.set.At(n.State.CurrentIndex) //nolint:errcheck // The index always comes from the engine.
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %#v", frame)
	}
	_, err = fmt.Fprintln(r.out, string(data))

	return errors.Wrap(err, "failed to write frame")
}

func (r *renderer) writeText(state quiz.State) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n== %v ==\n%v\n", r.set.Title(), drawProgress(state.Progress))
	if state.Completed {
		fmt.Fprintf(&b, "%v\n", r.set.CompletionMessage())
		if r.set.Kind() == scenarios.BinaryKind {
			fmt.Fprintf(&b, "Score: %v / %v\n", state.Score, state.Total)
		}
		fmt.Fprintf(&b, "%v\n", helpText(r.set.Kind(), true))
		_, err := io.WriteString(r.out, b.String())

		return errors.Wrap(err, "failed to write completion")
	}
	rec, err := r.set.At(state.CurrentIndex)
	if err != nil {
		return errors.Wrapf(err, "failed to get scenario %v", state.CurrentIndex)
	}
	fmt.Fprintf(&b, "%v\n", rec.Prompt)
	for ix, opt := range rec.Options {
		fmt.Fprintf(&b, "%v%c. %v\n", marker(state, scenarios.OptionChoice(ix)), 'A'+ix, opt)
	}
	if r.set.Kind() == scenarios.BinaryKind {
		fmt.Fprintf(&b, "%vS. Secure\n", marker(state, scenarios.JudgmentChoice(scenarios.SecureJudgment)))
		fmt.Fprintf(&b, "%vX. Surrender\n", marker(state, scenarios.JudgmentChoice(scenarios.SurrenderJudgment)))
	}
	if state.FeedbackVisible && state.Feedback != nil {
		fmt.Fprintf(&b, "%v\n", feedbackText(state.Feedback))
	}
	fmt.Fprintf(&b, "Question: %v / %v\n", state.CurrentIndex+1, state.Total)
	if state.RetryCount > 0 && !state.FeedbackVisible {
		fmt.Fprintf(&b, "Try again!\n")
	}
	_, err = io.WriteString(r.out, b.String())

	return errors.Wrap(err, "failed to write scenario")
}

func marker(state quiz.State, choice scenarios.Choice) string {
	if state.Selected != nil && *state.Selected == choice {
		return "> "
	}

	return "  "
}

func feedbackText(feedback *quiz.Feedback) string {
	switch {
	case feedback.Correct && feedback.Explanation != "":
		return "Correct! " + feedback.Explanation
	case feedback.Correct:
		return "Correct!"
	default:
		return feedback.Explanation
	}
}

// drawProgress draws the path cells, the finish line being the last one.
func drawProgress(prg quiz.Progress) string {
	cells := make([]string, 0, prg.Total)
	switch prg.Style {
	case quiz.GrowingPathProgress:
		for ix := 0; ix < prg.Total; ix++ {
			switch {
			case ix == 0:
				cells = append(cells, "[@]")
			case prg.Grown && ix == prg.Filled-1:
				cells = append(cells, "[+]")
			case ix < prg.Filled:
				cells = append(cells, "[#]")
			case ix == prg.Total-1:
				cells = append(cells, "[F]")
			default:
				cells = append(cells, "[ ]")
			}
		}
	case quiz.TokenPathProgress:
		for ix := 0; ix < prg.Total; ix++ {
			switch {
			case ix == prg.Filled:
				cells = append(cells, "[*]")
			case ix == prg.Total-1:
				cells = append(cells, "[F]")
			default:
				cells = append(cells, "[ ]")
			}
		}
	case quiz.ScoreProgress:
		return fmt.Sprintf("Score: %v / %v", prg.Filled, prg.Total)
	}

	return strings.Join(cells, "")
}
