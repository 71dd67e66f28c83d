// SPDX-License-Identifier: ice License 1.0

package scenarios

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	stdlibtime "time"

	"github.com/cenkalti/backoff/v4"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/wintr/log"
)

func newRemoteFetcher(cfg *config) fetcher {
	return &remoteFetcher{cfg: cfg}
}

func (f *remoteFetcher) client() *req.Client {
	httpClient := req.C().SetTimeout(f.cfg.RequestDeadline)
	if len(f.cfg.CACertificates) > 0 {
		caCertPool := x509.NewCertPool()
		for _, crt := range f.cfg.CACertificates {
			caCertPool.AppendCertsFromPEM([]byte(crt))
		}
		httpClient = httpClient.SetTLSClientConfig(&tls.Config{RootCAs: caCertPool}) //nolint:gosec // .
	}

	return httpClient
}

func (f *remoteFetcher) Fetch(ctx context.Context, url string) (content []byte, err error) {
	httpClient := f.client()
	err = backoff.RetryNotify(
		func() error {
			content, err = f.fetch(ctx, httpClient, url)

			return err
		},
		//nolint:gomnd // Because those are static configs.
		backoff.WithContext(&backoff.ExponentialBackOff{
			InitialInterval:     100 * stdlibtime.Millisecond,
			RandomizationFactor: 0.5,
			Multiplier:          2.5,
			MaxInterval:         stdlibtime.Second,
			MaxElapsedTime:      f.cfg.RequestDeadline,
			Stop:                backoff.Stop,
			Clock:               backoff.SystemClock,
		}, ctx),
		func(e error, next stdlibtime.Duration) {
			log.Error(errors.Wrapf(e, "fetching scenarios from `%v` failed. retrying in %v... ", url, next))
		})

	return content, errors.Wrapf(err, "failed to fetch scenarios from `%v`", url)
}

func (*remoteFetcher) fetch(ctx context.Context, httpClient *req.Client, url string) ([]byte, error) {
	resp, err := httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-cache, no-store, must-revalidate").
		SetHeader("Pragma", "no-cache").
		SetHeader("Expires", "0").
		Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get `%v`", url)
	}
	if status := resp.GetStatusCode(); status != http.StatusOK {
		err = errors.Errorf("unexpected status code:%v while fetching `%v`", status, url)
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError && status != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}
	data, err := resp.ToBytes()

	return data, errors.Wrapf(err, "failed to read body of `%v`", url)
}
