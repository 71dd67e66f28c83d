// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"io"
	"sync"
	stdlibtime "time"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/scenarios"
	"github.com/ice-blockchain/wintr/time"
)

// Public API.

const (
	// RetryMode keeps the learner on a scenario until it is answered correctly.
	RetryMode Mode = "RETRY"
	// SingleShotMode judges every scenario exactly once and only keeps a score.
	SingleShotMode Mode = "SINGLE_SHOT"
)

const (
	GrowingPathProgress ProgressStyle = "GROWING_PATH"
	TokenPathProgress   ProgressStyle = "TOKEN_PATH"
	ScoreProgress       ProgressStyle = "SCORE"
)

const (
	SelectedEvent       Event = "SELECTED"
	FeedbackHiddenEvent Event = "FEEDBACK_HIDDEN"
	AdvancedEvent       Event = "ADVANCED"
	CompletedEvent      Event = "COMPLETED"
	RestartedEvent      Event = "RESTARTED"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrClosed        = errors.New("quiz engine closed")
)

type (
	Mode          string
	ProgressStyle string
	Event         string
	Choice        = scenarios.Choice
	Feedback      struct {
		Explanation string `json:"explanation,omitempty" example:"Strong passwords keep your data safe!"`
		Correct     bool   `json:"correct" example:"true"`
	}
	// | Progress is the display model of how far the learner got.
	Progress struct {
		Style ProgressStyle `json:"style" example:"GROWING_PATH"`
		// Filled is the grown segment count (head included), the token cell or the score, depending on Style.
		Filled int `json:"filled" example:"3"`
		Total  int `json:"total" example:"6"`
		// Grown is set in the snapshot where the marker just moved, i.e. the newest segment or the token's new cell.
		Grown    bool `json:"grown" example:"true"`
		Finished bool `json:"finished" example:"false"`
	}
	// | State is a read-only snapshot of the quiz.
	State struct {
		Selected        *Choice   `json:"selected,omitempty"`
		Feedback        *Feedback `json:"feedback,omitempty"`
		Progress        Progress  `json:"progress"`
		CurrentIndex    int       `json:"currentIndex" example:"1"`
		Total           int       `json:"total" example:"5"`
		RetryCount      int       `json:"retryCount" example:"0"`
		ProgressMarker  int       `json:"progressMarker" example:"1"`
		Score           int       `json:"score" example:"1"`
		FeedbackVisible bool      `json:"feedbackVisible" example:"false"`
		Completed       bool      `json:"completed" example:"false"`
	}
	Notification struct {
		At    *time.Time `json:"at" example:"2022-01-03T16:20:52.156534Z"`
		Event Event      `json:"event" example:"SELECTED"`
		State State      `json:"state"`
	}
	// | Subscriber receives every snapshot the engine produces, in order, on the engine's loop.
	// It must not block and must not call back into the engine.
	Subscriber func(*Notification)
	Engine     interface {
		io.Closer
		// Select is ignored while feedback is visible, after completion or for a choice
		// that is not a valid response to the active scenario.
		Select(choice Choice) State
		Restart() State
		Snapshot() State
		Subscribe(subscriber Subscriber) (unsubscribe func())
		Scenarios() *scenarios.Set
	}
	// | Scheduler fires a function once after the given delay, unless cancelled first.
	// fire must never be called from within Schedule itself.
	Scheduler interface {
		Schedule(delay stdlibtime.Duration, fire func()) (cancel func() bool)
	}
	// | Delays are how long feedback stays visible before the transition applies. A zero delay means the default one.
	Delays struct {
		Advance  stdlibtime.Duration `yaml:"advance"`
		Retry    stdlibtime.Duration `yaml:"retry"`
		Judgment stdlibtime.Duration `yaml:"judgment"`
	}
	// | Config holds the configuration of this package mounted from `application.yaml`.
	Config struct {
		Mode     Mode          `yaml:"mode"`
		Progress ProgressStyle `yaml:"progress"`
		Delays   Delays        `yaml:"delays"`
	}
)

// Private API.

const (
	applicationYamlKey = "quiz"

	defaultAdvanceDelay  = 1000 * stdlibtime.Millisecond
	defaultRetryDelay    = 1400 * stdlibtime.Millisecond
	defaultJudgmentDelay = 1800 * stdlibtime.Millisecond
)

const (
	selectCommand commandType = iota
	restartCommand
	snapshotCommand
	applyCommand
)

const (
	retryTransition transitionType = iota
	advanceTransition
)

type (
	commandType    uint8
	transitionType uint8
	// | transition is a delayed state change, only valid for the epoch it was issued against.
	transition struct {
		delay   stdlibtime.Duration
		epoch   uint64
		kind    transitionType
		correct bool
	}
	command struct {
		reply      chan State
		transition *transition
		choice     Choice
		kind       commandType
	}
	// | machine is everything the reducer owns: the public snapshot plus the epoch.
	machine struct {
		state State
		epoch uint64
	}
	timerScheduler struct{}

	subscription struct {
		fn Subscriber
		id string
	}
	// | engine implements Engine and owns the only writer of State: its event loop.
	engine struct {
		scheduler     Scheduler
		set           *scenarios.Set
		cfg           *Config
		commands      chan *command
		quit          chan struct{}
		done          chan struct{}
		cancelPending func() bool
		subscriptions []*subscription
		id            string
		machine       machine
		subMx         sync.Mutex
		closeOnce     sync.Once
	}
)
