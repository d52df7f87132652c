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
package batch

import (
	"context"
	"time"

	"github.com/penny-vault/pvreports/data"
	"github.com/rs/zerolog"
)

// Provisioner creates the report directory tree
type Provisioner interface {
	EnsureRoot() error
	EnsureSymbol(symbol string, years []int, quarters []string) error
}

// Discoverer finds the quarterly report links on a listing page
type Discoverer interface {
	Discover(ctx context.Context, baseURL string) (data.QuarterLinkSet, error)
}

// Fetcher downloads the reports for a single symbol and year
type Fetcher interface {
	FetchAll(ctx context.Context, symbol string, year int, links data.QuarterLinkSet) []*data.Outcome
}

// Orchestrator runs the download pipeline for every row of the input table
type Orchestrator struct {
	Provisioner Provisioner
	Discoverer  Discoverer
	Fetcher     Fetcher
	Events      chan<- *data.Event
}

func New(provisioner Provisioner, discoverer Discoverer, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{
		Provisioner: provisioner,
		Discoverer:  discoverer,
		Fetcher:     fetcher,
	}
}

// Symbols returns the distinct symbols of rows in the order they first appear
func Symbols(rows []*data.ReportRow) []string {
	seen := make(map[string]bool, len(rows))
	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if seen[row.Symbol] {
			continue
		}
		seen[row.Symbol] = true
		symbols = append(symbols, row.Symbol)
	}
	return symbols
}

// Run provisions the directory tree for every symbol and then discovers and
// fetches the reports of each row and year in turn. Problems with a single
// row, year or report are reported as events and never stop the run. An
// error is only returned when the library root cannot be created or ctx is
// cancelled; the summary reflects the work done up to that point.
func (orchestrator *Orchestrator) Run(ctx context.Context, rows []*data.ReportRow, years []int, quarters []string) (*data.RunSummary, error) {
	summary := data.NewRunSummary()

	logger := zerolog.Ctx(ctx).With().Str("RunID", summary.RunID.String()).Logger()
	ctx = logger.WithContext(ctx)

	symbols := Symbols(rows)
	summary.Companies = len(symbols)
	summary.Years = len(years)
	summary.Quarters = len(quarters)

	defer func() {
		summary.EndTime = time.Now()
	}()

	if err := orchestrator.Provisioner.EnsureRoot(); err != nil {
		logger.Error().Err(err).Msg("could not create report library")
		return summary, err
	}

	provisioned := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		if err := orchestrator.Provisioner.EnsureSymbol(symbol, years, quarters); err != nil {
			data.Emit(orchestrator.Events, &data.Event{Kind: data.ProvisionFailed, Symbol: symbol, Err: err})
			continue
		}
		provisioned[symbol] = true
	}

	for _, row := range rows {
		if !provisioned[row.Symbol] {
			continue
		}

		for _, year := range years {
			if err := ctx.Err(); err != nil {
				logger.Warn().Err(err).Msg("run cancelled")
				return summary, err
			}

			baseURL, ok := row.URL(year)
			if !ok {
				summary.Skipped++
				data.Emit(orchestrator.Events, &data.Event{Kind: data.DataMissing, Symbol: row.Symbol, Year: year})
				continue
			}

			data.Emit(orchestrator.Events, &data.Event{Kind: data.DiscoverStarted, Symbol: row.Symbol, Year: year, URL: baseURL})

			links, err := orchestrator.Discoverer.Discover(ctx, baseURL)
			if err != nil {
				summary.DiscoveryErrors++
				data.Emit(orchestrator.Events, &data.Event{Kind: data.DiscoverFailed, Symbol: row.Symbol, Year: year, URL: baseURL, Err: err})
				continue
			}

			summary.Add(orchestrator.Fetcher.FetchAll(ctx, row.Symbol, year, links)...)
		}
	}

	logger.Info().Object("Summary", summary).Msg("batch complete")

	return summary, nil
}
