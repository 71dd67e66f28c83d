// SPDX-License-Identifier: ice License 1.0

package main

import (
	"io"
	"sync"
	stdlibtime "time"

	"github.com/pkg/errors"

	"github.com/ice-blockchain/defender/quiz"
	"github.com/ice-blockchain/defender/scenarios"
)

// Private API.

const (
	applicationYamlKey = "cmd/defender"

	textOutput = "text"
	jsonOutput = "json"

	metricsShutdownDeadline = 5 * stdlibtime.Second
)

const (
	selectIntent intentKind = iota
	restartIntent
	quitIntent
	helpIntent
)

var (
	errUnknownInput   = errors.New("unknown input")
	errUnknownVariant = errors.New("unknown variant")
	//nolint:gochecknoglobals // Because those are the variants shipped with the binary.
	variants = map[string]*variant{
		scenarios.SnakePathContent: {
			content:  scenarios.SnakePathContent,
			mode:     quiz.RetryMode,
			progress: quiz.GrowingPathProgress,
		},
		scenarios.TokenPathContent: {
			content:  scenarios.TokenPathContent,
			mode:     quiz.RetryMode,
			progress: quiz.TokenPathProgress,
		},
		scenarios.SecureOrSurrenderContent: {
			content:  scenarios.SecureOrSurrenderContent,
			mode:     quiz.SingleShotMode,
			progress: quiz.ScoreProgress,
		},
	}
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	cfg config
)

type (
	intentKind uint8
	intent     struct {
		choice scenarios.Choice
		kind   intentKind
	}
	variant struct {
		content  string
		mode     quiz.Mode
		progress quiz.ProgressStyle
	}
	// | renderer is the presentation side: it only ever reads snapshots.
	renderer struct {
		out    io.Writer
		set    *scenarios.Set
		format string
		mx     sync.Mutex
	}
	jsonFrame struct {
		*quiz.Notification
		Scenario *scenarios.Record `json:"scenario,omitempty"`
	}
	config struct {
		Variant        string `yaml:"variant"`
		Output         string `yaml:"output"`
		MetricsAddress string `yaml:"metricsAddress"`
	}
)
