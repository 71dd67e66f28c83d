// SPDX-License-Identifier: ice License 1.0

package scenarios

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

func OptionChoice(option int) Choice {
	return Choice{Option: option}
}

func JudgmentChoice(judgment Judgment) Choice {
	return Choice{Judgment: judgment}
}

func (c Choice) String() string {
	if c.Judgment != "" {
		return string(c.Judgment)
	}

	return fmt.Sprintf("option #%v", c.Option)
}

// New validates the content once and freezes it. Any record whose correct response does not
// resolve to a valid option/judgment makes the whole set invalid.
func New(content *Content) (*Set, error) {
	if err := validate(content); err != nil {
		return nil, err
	}
	frozen := cloneContent(content)
	canonical, err := json.Marshal(frozen)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal content %v", frozen.Title)
	}

	return &Set{content: frozen, checksum: xxh3.Hash(canonical)}, nil
}

func Parse(data []byte) (*Set, error) {
	var wire wireContent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, multierror.Append(ErrInvalidContent, errors.Wrap(err, "failed to unmarshal content"))
	}
	content, err := wire.content()
	if err != nil {
		return nil, err
	}

	return New(content)
}

func (w *wireContent) content() (*Content, error) {
	content := &Content{
		Title:             w.Title,
		CompletionMessage: w.CompletionMessage,
		Kind:              w.Kind,
		Records:           make([]*Record, 0, len(w.Records)),
	}
	var errs []error
	for ix, rec := range w.Records {
		if rec == nil {
			content.Records = append(content.Records, nil)

			continue
		}
		if rec.Correct == nil {
			errs = append(errs, errors.Errorf("scenario #%v: correct response is missing", ix))

			continue
		}
		content.Records = append(content.Records, &Record{
			Prompt:      rec.Prompt,
			Explanation: rec.Explanation,
			Options:     rec.Options,
			Correct:     *rec.Correct,
		})
	}
	if len(errs) != 0 {
		return nil, multierror.Append(ErrInvalidContent, errs...) //nolint:wrapcheck // Not needed.
	}

	return content, nil
}

func (s *Set) Len() int {
	return len(s.content.Records)
}

func (s *Set) At(idx int) (*Record, error) {
	if idx < 0 || idx >= s.Len() {
		return nil, errors.Wrapf(ErrOutOfRange, "scenario %v not in [0,%v)", idx, s.Len())
	}

	return cloneRecord(s.content.Records[idx]), nil
}

func (s *Set) Kind() Kind {
	return s.content.Kind
}

func (s *Set) Title() string {
	return s.content.Title
}

func (s *Set) CompletionMessage() string {
	return s.content.CompletionMessage
}

// Checksum is the xxh3 hash of the canonical JSON form of the content.
func (s *Set) Checksum() uint64 {
	return s.checksum
}

// Accepts reports whether the choice is a well-formed response to the scenario at idx.
func (s *Set) Accepts(idx int, choice Choice) bool {
	if idx < 0 || idx >= s.Len() {
		return false
	}

	return validChoice(s.content.Kind, s.content.Records[idx], choice)
}

func validate(content *Content) error {
	if content == nil {
		return errors.Wrap(ErrInvalidContent, "content is nil")
	}
	if len(content.Records) == 0 {
		return errors.Wrapf(ErrInvalidContent, "content `%v` has no scenarios", content.Title)
	}
	if content.Kind != MultipleChoiceKind && content.Kind != BinaryKind {
		return errors.Wrapf(ErrInvalidContent, "content `%v` has unknown kind `%v`", content.Title, content.Kind)
	}
	var errs []error
	for ix, rec := range content.Records {
		if err := validateRecord(content.Kind, rec); err != nil {
			errs = append(errs, errors.Wrapf(err, "scenario #%v", ix))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	return multierror.Append(ErrInvalidContent, errs...) //nolint:wrapcheck // Not needed.
}

func validateRecord(kind Kind, rec *Record) error {
	if rec == nil {
		return errors.New("scenario is nil")
	}
	if strings.TrimSpace(rec.Prompt) == "" {
		return errors.New("prompt is empty")
	}
	switch kind {
	case MultipleChoiceKind:
		if len(rec.Options) < minOptions {
			return errors.Errorf("expected at least %v options, got %v", minOptions, len(rec.Options))
		}
		for ix, opt := range rec.Options {
			if strings.TrimSpace(opt) == "" {
				return errors.Errorf("option #%v is empty", ix)
			}
		}
	case BinaryKind:
		if len(rec.Options) != 0 {
			return errors.Errorf("binary scenarios have no options, got %v", len(rec.Options))
		}
	}
	if !validChoice(kind, rec, rec.Correct) {
		return errors.Errorf("correct response %v does not resolve to a valid %v response", rec.Correct, kind)
	}

	return nil
}

func validChoice(kind Kind, rec *Record, choice Choice) bool {
	switch kind {
	case MultipleChoiceKind:
		return choice.Judgment == "" && choice.Option >= 0 && choice.Option < len(rec.Options)
	case BinaryKind:
		if choice.Option != 0 {
			return false
		}
		for _, j := range Judgments {
			if choice.Judgment == j {
				return true
			}
		}
	}

	return false
}

func cloneContent(content *Content) *Content {
	cpy := *content
	cpy.Records = make([]*Record, 0, len(content.Records))
	for _, rec := range content.Records {
		cpy.Records = append(cpy.Records, cloneRecord(rec))
	}

	return &cpy
}

func cloneRecord(rec *Record) *Record {
	cpy := *rec
	if rec.Options != nil {
		cpy.Options = append(make([]string, 0, len(rec.Options)), rec.Options...)
	}

	return &cpy
}
