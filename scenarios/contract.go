// SPDX-License-Identifier: ice License 1.0

package scenarios

import (
	"context"
	"embed"
	stdlibtime "time"

	"github.com/pkg/errors"
)

// Public API.

const (
	MultipleChoiceKind Kind = "MULTIPLE_CHOICE"
	BinaryKind         Kind = "BINARY"
)

const (
	SecureJudgment    Judgment = "SECURE"
	SurrenderJudgment Judgment = "SURRENDER"
)

const (
	SnakePathContent         = "snake-path"
	TokenPathContent         = "token-path"
	SecureOrSurrenderContent = "secure-or-surrender"
)

var (
	ErrInvalidContent = errors.New("invalid content")
	ErrOutOfRange     = errors.New("out of range")
	ErrUnknownContent = errors.New("unknown content")
	//nolint:gochecknoglobals // It's just for more descriptive validation messages.
	Judgments = []Judgment{SecureJudgment, SurrenderJudgment}
)

type (
	Kind     string
	Judgment string
	// | Choice is a learner's response, or the correct response of a Record.
	// Only one of the fields is meaningful, depending on the Kind of the Set.
	Choice struct {
		Judgment Judgment `json:"judgment,omitempty" example:"SECURE"`
		Option   int      `json:"option" example:"1"`
	}
	Record struct {
		Prompt      string   `json:"prompt" example:"Which is the safest password?"`
		Explanation string   `json:"explanation" example:"Strong passwords keep your data safe!"`
		Options     []string `json:"options,omitempty" example:"password123,Your pet's name"`
		Correct     Choice   `json:"correct"`
	}
	Content struct {
		Title             string    `json:"title" example:"Data Defender: Snake Path"`
		CompletionMessage string    `json:"completionMessage,omitempty" example:"You kept your data safe!"`
		Kind              Kind      `json:"kind" example:"MULTIPLE_CHOICE"`
		Records           []*Record `json:"scenarios"`
	}
	// | Set is the ordered, immutable sequence of scenarios a quiz walks through.
	Set struct {
		content  *Content
		checksum uint64
	}
)

// Private API.

const (
	applicationYamlKey = "scenarios"
	requestDeadline    = 25 * stdlibtime.Second
	minOptions         = 2
)

//go:embed content/*.json
var builtinContent embed.FS //nolint:grouper // .

type (
	fetcher interface {
		Fetch(ctx context.Context, url string) ([]byte, error)
	}
	remoteFetcher struct {
		cfg *config
	}
	// | wireContent is Content as it is decoded, so that an absent correct response can be told apart from option #0.
	wireContent struct {
		Title             string        `json:"title"`
		CompletionMessage string        `json:"completionMessage"`
		Kind              Kind          `json:"kind"`
		Records           []*wireRecord `json:"scenarios"`
	}
	wireRecord struct {
		Correct     *Choice  `json:"correct"`
		Prompt      string   `json:"prompt"`
		Explanation string   `json:"explanation"`
		Options     []string `json:"options"`
	}
	// | config holds the configuration of this package mounted from `application.yaml`.
	config struct {
		Content         string              `yaml:"content"`
		ContentFile     string              `yaml:"contentFile"`
		ContentURL      string              `yaml:"contentUrl"`
		CACertificates  []string            `yaml:"caCertificates"`
		RequestDeadline stdlibtime.Duration `yaml:"requestDeadline"`
	}
)
