// Copyright 2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvreports/data"
	"github.com/penny-vault/pvreports/library"
	"github.com/rs/zerolog"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Archiver receives a copy of every report that was downloaded successfully
type Archiver interface {
	Archive(ctx context.Context, fn, key string) error
}

// Fetcher downloads the reports of a QuarterLinkSet into the library
type Fetcher struct {
	Client   *resty.Client
	Library  *library.Library
	Archiver Archiver
	Events   chan<- *data.Event
}

func New(client *resty.Client, myLibrary *library.Library) *Fetcher {
	if client == nil {
		client = resty.New()
	}

	return &Fetcher{
		Client:  client,
		Library: myLibrary,
	}
}

// FetchAll downloads every link for symbol and year. Each report is handled
// independently: a failure is recorded and the remaining quarters are still
// attempted. Directories are expected to already exist.
func (fetcher *Fetcher) FetchAll(ctx context.Context, symbol string, year int, links data.QuarterLinkSet) []*data.Outcome {
	outcomes := make([]*data.Outcome, 0, len(links))

	for _, quarter := range links.Quarters() {
		outcome := fetcher.fetch(ctx, symbol, year, quarter, links[quarter])
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (fetcher *Fetcher) fetch(ctx context.Context, symbol string, year int, quarter, reportURL string) *data.Outcome {
	logger := zerolog.Ctx(ctx)

	outcome := &data.Outcome{
		Symbol:  symbol,
		Year:    year,
		Quarter: quarter,
		URL:     reportURL,
		Path:    fetcher.Library.ReportPath(symbol, year, quarter),
	}

	data.Emit(fetcher.Events, &data.Event{Kind: data.FetchStarted, Symbol: symbol, Year: year, Quarter: quarter, URL: reportURL})

	if err := fetcher.download(ctx, reportURL, outcome.Path); err != nil {
		outcome.Status = data.Failed
		outcome.Error = err.Error()
		logger.Debug().Object("Outcome", outcome).Msg("report download failed")
		data.Emit(fetcher.Events, &data.Event{Kind: data.FetchFailed, Symbol: symbol, Year: year, Quarter: quarter, URL: reportURL, Err: err})
		return outcome
	}

	outcome.Status = data.Downloaded
	logger.Debug().Object("Outcome", outcome).Msg("report downloaded")
	data.Emit(fetcher.Events, &data.Event{Kind: data.FetchSucceeded, Symbol: symbol, Year: year, Quarter: quarter, URL: reportURL})

	if fetcher.Archiver != nil {
		key := path.Join(symbol, strconv.Itoa(year), quarter, data.ReportFilename)
		if err := fetcher.Archiver.Archive(ctx, outcome.Path, key); err != nil {
			logger.Error().Err(err).Str("Key", key).Msg("archiving report failed")
		}
	}

	return outcome
}

// download saves the response body to fn. Nothing is written unless the
// server responds with a 2xx status.
func (fetcher *Fetcher) download(ctx context.Context, reportURL, fn string) error {
	resp, err := fetcher.Client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/pdf,*/*").
		Get(reportURL)
	if err != nil {
		return err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("%w: %s", ErrStatus, resp.Status())
	}

	return writeReport(fn, resp.Body())
}

// writeReport replaces fn with body. The body is written to a temporary file
// in the same directory and renamed over fn, so an interrupted write leaves
// the previous report in place.
func writeReport(fn string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(fn), ".report-*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), fn)
}
