// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"
	"flag"
	"fmt"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/quiz"
	"github.com/ice-blockchain/defender/scenarios"
	"github.com/ice-blockchain/wintr/log"
)

//nolint:gochecknoglobals // Because those are flags
var (
	content       = flag.String("content", scenarios.SnakePathContent, "built-in content to autoplay")
	singleShot    = flag.Bool("singleShot", false, "judge every scenario once instead of retrying until correct")
	wrongAttempts = flag.Int("wrongAttempts", 1, "incorrect answers to give on every scenario before the correct one")
	delay         = flag.Duration("delay", 50*stdlibtime.Millisecond, "delay of every scheduled transition")
)

func main() {
	flag.Parse()
	ctx, cancel := context.WithTimeout(context.Background(), stdlibtime.Minute)
	defer cancel()

	set, err := scenarios.Builtin(*content)
	log.Panic(errors.Wrapf(err, "failed to load `%v`", *content)) //nolint:revive // .
	mode := quiz.RetryMode
	if *singleShot {
		mode = quiz.SingleShotMode
	}
	cfg := quiz.DefaultConfig(mode)
	cfg.Delays = quiz.Delays{Advance: *delay, Retry: *delay, Judgment: *delay}
	eng, err := quiz.New(ctx, set, cfg)
	log.Panic(errors.Wrap(err, "failed to start quiz engine")) //nolint:revive // .
	defer func() {
		log.Error(errors.Wrap(eng.Close(), "failed to close quiz engine"))
	}()

	settled := make(chan quiz.State, 1)
	eng.Subscribe(func(n *quiz.Notification) {
		data, mErr := json.Marshal(n)
		log.Panic(errors.Wrapf(mErr, "failed to marshal %#v", n)) //nolint:revive // .
		log.Info(string(data))
		if n.Event != quiz.SelectedEvent {
			settled <- n.State
		}
	})
	autoplay(ctx, eng, settled)
}

func autoplay(ctx context.Context, eng quiz.Engine, settled <-chan quiz.State) {
	set := eng.Scenarios()
	for idx := 0; idx < set.Len(); idx++ {
		rec, err := set.At(idx)
		log.Panic(err) //nolint:revive // .
		answers := make([]scenarios.Choice, 0, *wrongAttempts+1)
		for i := 0; i < *wrongAttempts && set.Kind() == scenarios.MultipleChoiceKind; i++ {
			answers = append(answers, scenarios.OptionChoice((rec.Correct.Option+i+1)%len(rec.Options)))
		}
		answers = append(answers, rec.Correct)
		for _, answer := range answers {
			eng.Select(answer)
			select {
			case <-settled:
			case <-ctx.Done():
				log.Panic(errors.Wrap(ctx.Err(), "autoplay timed out"))
			}
			if eng.Snapshot().CurrentIndex != idx || eng.Snapshot().Completed {
				break
			}
		}
	}
	final := eng.Snapshot()
	log.Info(fmt.Sprintf("autoplay finished: completed:%v, progressMarker:%v/%v, score:%v", final.Completed, final.ProgressMarker, final.Total, final.Score))
}
