// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"dario.cat/mergo"
	"github.com/pkg/errors"

	appcfg "github.com/ice-blockchain/wintr/config"
	"github.com/ice-blockchain/wintr/log"
)

func MustLoadConfig() *Config {
	var cfg Config
	appcfg.MustLoadFromKey(applicationYamlKey, &cfg)
	merged, err := cfg.withDefaults()
	log.Panic(errors.Wrapf(err, "invalid `%v` config", applicationYamlKey)) //nolint:revive // .

	return merged
}

// DefaultConfig is the configuration each variant ships with: RETRY walks a growing path, SINGLE_SHOT keeps a score.
func DefaultConfig(mode Mode) *Config {
	cfg, err := (&Config{Mode: mode}).withDefaults()
	log.Panic(err) //nolint:revive // .

	return cfg
}

func (c *Config) withDefaults() (*Config, error) {
	cfg := new(Config)
	if c != nil {
		*cfg = *c
	}
	defaults := Config{
		Mode: RetryMode,
		Delays: Delays{
			Advance:  defaultAdvanceDelay,
			Retry:    defaultRetryDelay,
			Judgment: defaultJudgmentDelay,
		},
	}
	if err := mergo.Merge(cfg, defaults); err != nil {
		return nil, errors.Wrap(err, "failed to merge config defaults")
	}
	if cfg.Progress == "" {
		cfg.Progress = GrowingPathProgress
		if cfg.Mode == SingleShotMode {
			cfg.Progress = ScoreProgress
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Mode {
	case RetryMode, SingleShotMode:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown mode `%v`", c.Mode)
	}
	switch c.Progress {
	case GrowingPathProgress, TokenPathProgress, ScoreProgress:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown progress style `%v`", c.Progress)
	}
	if c.Delays.Advance < 0 || c.Delays.Retry < 0 || c.Delays.Judgment < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative delays %#v", c.Delays)
	}

	return nil
}
