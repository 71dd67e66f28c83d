// SPDX-License-Identifier: ice License 1.0

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ice-blockchain/defender/quiz"
	"github.com/ice-blockchain/defender/scenarios"
	appcfg "github.com/ice-blockchain/wintr/config"
	"github.com/ice-blockchain/wintr/log"
)

//nolint:gochecknoglobals // Because those are flags
var (
	variantFlag     = flag.String("variant", "", "built-in variant to play: snake-path, token-path or secure-or-surrender")
	jsonFlag        = flag.Bool("json", false, "emit every snapshot as a JSON line instead of drawing it")
	metricsAddrFlag = flag.String("metricsAddr", "", "address to expose Prometheus metrics on, e.g. :9091")
)

func main() {
	flag.Parse()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appcfg.MustLoadFromKey(applicationYamlKey, &cfg)
	overrideConfig()
	eng := mustStartEngine(ctx)
	defer func() {
		log.Error(errors.Wrap(eng.Close(), "failed to close quiz engine"))
	}()
	if cfg.MetricsAddress != "" {
		registry := prometheus.NewRegistry()
		eng.Subscribe(quiz.NewMetrics(registry).Observe)
		go serveMetrics(ctx, cfg.MetricsAddress, registry)
	}
	r := newRenderer(os.Stdout, eng.Scenarios(), cfg.Output)
	eng.Subscribe(r.Render)
	r.RenderState(eng.Snapshot())
	play(ctx, eng, os.Stdin, r)
}

func overrideConfig() {
	if *variantFlag != "" {
		cfg.Variant = *variantFlag
	}
	if *jsonFlag {
		cfg.Output = jsonOutput
	}
	if cfg.Output == "" {
		cfg.Output = textOutput
	}
	if *metricsAddrFlag != "" {
		cfg.MetricsAddress = *metricsAddrFlag
	}
}

// mustStartEngine plays the configured variant, or whatever `scenarios` and `quiz` are configured with if there's none.
func mustStartEngine(ctx context.Context) quiz.Engine {
	if cfg.Variant == "" {
		return quiz.MustNew(ctx, scenarios.MustLoad(ctx))
	}
	eng, err := startVariant(ctx, cfg.Variant, quiz.MustLoadConfig())
	log.Panic(errors.Wrapf(err, "failed to start variant `%v`", cfg.Variant)) //nolint:revive // .

	return eng
}

func startVariant(ctx context.Context, name string, base *quiz.Config) (quiz.Engine, error) {
	vrn, found := variants[name]
	if !found {
		return nil, errors.Wrapf(errUnknownVariant, "%v", name)
	}
	set, err := scenarios.Builtin(vrn.content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load content `%v`", vrn.content)
	}
	qCfg := *base
	qCfg.Mode, qCfg.Progress = vrn.mode, vrn.progress

	return quiz.New(ctx, set, &qCfg)
}

func play(ctx context.Context, eng quiz.Engine, in io.Reader, r *renderer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		log.Error(errors.Wrap(scanner.Err(), "failed to read input"))
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !dispatch(eng, r, line) {
				return
			}
		}
	}
}

// dispatch turns one line of input into an intent. It reports whether to keep playing.
func dispatch(eng quiz.Engine, r *renderer, line string) bool {
	snapshot := eng.Snapshot()
	itn, err := parseIntent(eng.Scenarios().Kind(), line)
	if err != nil {
		r.Hint(fmt.Sprintf("%q is not an answer. %v", line, helpText(eng.Scenarios().Kind(), snapshot.Completed)))

		return true
	}
	switch itn.kind {
	case quitIntent:
		return false
	case restartIntent:
		eng.Restart()
	case helpIntent:
		r.Hint(helpText(eng.Scenarios().Kind(), snapshot.Completed))
	case selectIntent:
		if after := eng.Select(itn.choice); !after.FeedbackVisible && !after.Completed && !snapshot.FeedbackVisible {
			r.Hint(helpText(eng.Scenarios().Kind(), false))
		}
	}

	return true
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux} //nolint:gosec // .
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownDeadline)
		defer cancel()
		log.Error(errors.Wrap(srv.Shutdown(shutdownCtx), "failed to shutdown metrics server")) //nolint:contextcheck // .
	}()
	log.Info(fmt.Sprintf("serving metrics on %v/metrics", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(errors.Wrapf(err, "metrics server on %v failed", addr))
	}
}
