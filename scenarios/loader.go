// SPDX-License-Identifier: ice License 1.0

package scenarios

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	appcfg "github.com/ice-blockchain/wintr/config"
	"github.com/ice-blockchain/wintr/log"
)

func mustLoadConfig() *config {
	var cfg config
	appcfg.MustLoadFromKey(applicationYamlKey, &cfg)
	if cfg.Content == "" && cfg.ContentFile == "" && cfg.ContentURL == "" {
		cfg.Content = SnakePathContent
	}
	if cfg.RequestDeadline == 0 {
		cfg.RequestDeadline = requestDeadline
	}

	return &cfg
}

// MustLoad loads the scenario set configured under `scenarios` in `application.yaml`.
// The remote URL wins over the file, which wins over the built-in content.
func MustLoad(ctx context.Context) *Set {
	cfg := mustLoadConfig()
	set, err := load(ctx, cfg, newRemoteFetcher(cfg))
	log.Panic(errors.Wrap(err, "failed to load scenarios")) //nolint:revive // .
	log.Info(fmt.Sprintf("loaded `%v` with %v scenarios, checksum:%v", set.Title(), set.Len(), set.Checksum()))

	return set
}

// Builtin returns one of the scenario sets shipped with the binary.
func Builtin(name string) (*Set, error) {
	data, err := builtinContent.ReadFile(fmt.Sprintf("content/%v.json", name))
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownContent, "%v", name)
	}

	return Parse(data)
}

func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read content file `%v`", path)
	}
	set, err := Parse(data)

	return set, errors.Wrapf(err, "failed to parse content file `%v`", path)
}

func load(ctx context.Context, cfg *config, remote fetcher) (*Set, error) {
	switch {
	case cfg.ContentURL != "":
		data, err := remote.Fetch(ctx, cfg.ContentURL)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch content from `%v`", cfg.ContentURL)
		}
		set, err := Parse(data)

		return set, errors.Wrapf(err, "failed to parse content from `%v`", cfg.ContentURL)
	case cfg.ContentFile != "":
		return LoadFile(cfg.ContentFile)
	default:
		return Builtin(cfg.Content)
	}
}
